package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the hierarchy interactively",
		Long: `Open an outline of the workspace. Folders can be collapsed and expanded
and subtrees auto-laid out; changes are saved when the outline closes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			final, runErr := tea.NewProgram(newOutlineModel(ws.sess), tea.WithContext(ctx)).Run()
			if err := ws.close(ctx); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if m, ok := final.(outlineModel); ok && m.edits > 0 {
				printSuccess("Saved %d change(s)", m.edits)
			}
			return nil
		},
	}
}

// =============================================================================
// outlineModel - interactive hierarchy outline
// =============================================================================

// outlineRow is one visible line of the outline.
type outlineRow struct {
	id    string
	depth int
}

// outlineModel is the bubbletea model over a live session. Rows are the
// items reachable without passing a collapsed folder.
type outlineModel struct {
	sess   *canvas.Session
	rows   []outlineRow
	cursor int
	offset int
	height int
	status string
	edits  int
}

func newOutlineModel(sess *canvas.Session) outlineModel {
	m := outlineModel{sess: sess, height: 15}
	m.refresh()
	return m
}

// refresh rebuilds the rows and keeps the cursor on the same item when it
// is still visible.
func (m *outlineModel) refresh() {
	var current string
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].id
	}
	f := m.sess.Index().Forest()
	m.rows = m.rows[:0]
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		m.rows = append(m.rows, outlineRow{id: id, depth: depth})
		if it, ok := m.sess.Item(id); ok && it.Collapsed {
			return
		}
		for _, child := range f.Children(id) {
			visit(child, depth+1)
		}
	}
	for _, r := range f.Roots() {
		visit(r, 0)
	}

	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	for i, r := range m.rows {
		if r.id == current {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func (m *outlineModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m outlineModel) selected() (canvas.Item, bool) {
	if len(m.rows) == 0 {
		return canvas.Item{}, false
	}
	return m.sess.Item(m.rows[m.cursor].id)
}

func (m outlineModel) Init() tea.Cmd {
	return nil
}

func (m outlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scroll()
			}
		case "enter", " ":
			if it, ok := m.selected(); ok {
				m.setCollapsed(it, !it.Collapsed)
			}
		case "l", "right":
			if it, ok := m.selected(); ok {
				m.setCollapsed(it, false)
			}
		case "h", "left":
			m.collapseOrAscend()
		case "a":
			m.layout()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m *outlineModel) setCollapsed(it canvas.Item, collapsed bool) {
	if !it.Kind.CanParent() {
		m.status = fmt.Sprintf("%s cannot be collapsed", it.Kind)
		return
	}
	if it.Collapsed == collapsed {
		return
	}
	if err := m.sess.SetCollapsed(it.ID, collapsed); err != nil {
		m.status = err.Error()
		return
	}
	m.edits++
	m.refresh()
}

// collapseOrAscend collapses an expanded folder, otherwise moves the
// cursor to the parent.
func (m *outlineModel) collapseOrAscend() {
	it, ok := m.selected()
	if !ok {
		return
	}
	if it.Kind.CanParent() && !it.Collapsed && m.sess.Index().Forest().HasChildren(it.ID) {
		m.setCollapsed(it, true)
		return
	}
	parent, ok := m.sess.Index().Parent(it.ID)
	if !ok {
		return
	}
	for i, r := range m.rows {
		if r.id == parent {
			m.cursor = i
			m.scroll()
			return
		}
	}
}

func (m *outlineModel) layout() {
	it, ok := m.selected()
	if !ok {
		return
	}
	pos, err := m.sess.AutoLayout(it.ID)
	if err != nil {
		m.status = err.Error()
		return
	}
	if len(pos) == 0 {
		m.status = fmt.Sprintf("%s has no children", it.ID)
		return
	}
	m.edits += len(pos)
	m.status = fmt.Sprintf("Laid out %d item(s) under %s", len(pos), it.ID)
}

func (m outlineModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Canvas Outline"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  h/l collapse/expand  a layout  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty workspace)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.rows))
	rows := make([][]string, 0, end-m.offset)
	g := m.sess.Graph()
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		it, _ := m.sess.Item(r.id)

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		marker := "  "
		if it.Kind.CanParent() && g != nil {
			if n, ok := g.Node(it.ID); ok && n.ChildCount > 0 {
				marker = "▾ "
				if it.Collapsed {
					marker = "▸ "
				}
			}
		}
		label := it.Label
		if label == "" {
			label = it.ID
		}
		position := ""
		if n, ok := g.Node(it.ID); ok {
			position = fmt.Sprintf("%g, %g", n.Position.X, n.Position.Y)
		}
		rows = append(rows, []string{
			cursor,
			strings.Repeat("  ", r.depth) + marker + label,
			string(it.Kind),
			position,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Item", "Kind", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.offset + row
			if idx == m.cursor {
				return listSelectedStyle
			}
			if col == 2 {
				if it, ok := m.sess.Item(m.rows[idx].id); ok {
					return kindStyle(it.Kind)
				}
			}
			if col == 3 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
	if m.status != "" {
		b.WriteString("  " + StyleWarning.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}
