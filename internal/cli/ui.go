package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	apperr "github.com/matzehuels/treecanvas/pkg/errors"
)

// stdout receives every status line. Tests may swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - highlights
	colorGreen  = lipgloss.Color("35")  // Green - success, cached
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands, links
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")

	colorFolder  = lipgloss.Color("179")
	colorNote    = lipgloss.Color("252")
	colorMindmap = lipgloss.Color("141")
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// kindStyle colors an item kind the same way in tables and the outline.
func kindStyle(k canvas.Kind) lipgloss.Style {
	switch k {
	case canvas.KindFolder:
		return lipgloss.NewStyle().Foreground(colorFolder)
	case canvas.KindMindmap:
		return lipgloss.NewStyle().Foreground(colorMindmap)
	default:
		return lipgloss.NewStyle().Foreground(colorNote)
	}
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printLine(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintln(stdout, style.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(iconWarning, styleIconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// PrintError prints err to stderr without its error code prefix.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, styleIconError.Render(iconError)+" "+apperr.UserMessage(err))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Canvas Output
// =============================================================================

// graphStats is the summary line printed after show, layout and export.
type graphStats struct {
	nodes, hidden, edges int
	cached               bool
}

// printStats prints e.g. "5 nodes · 1 hidden · 4 edges · cached".
func printStats(s graphStats) {
	var parts []string
	if s.nodes > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d nodes", s.nodes)))
	}
	if s.hidden > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d hidden", s.hidden)))
	}
	if s.edges > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d edges", s.edges)))
	}
	if s.cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printIssues warns about items the projection could not place as stored.
func printIssues(issues []canvas.Issue) {
	for _, is := range issues {
		switch is.Kind {
		case canvas.IssueMissingParent, canvas.IssueParentKind, canvas.IssueCycle:
			printWarning("%s: %s %s, shown as a root", is.ItemID, is.Kind, StyleDim.Render(is.Parent))
		default:
			printWarning("%s: %s", is.ItemID, is.Kind)
		}
	}
}

// printChanges lists committed position changes.
func printChanges(changes []canvas.PositionChange) {
	for _, pc := range changes {
		printKeyValue(pc.ID, formatPoint(pc.Position))
	}
}
