package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treecanvas/pkg/buildinfo"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/errors"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/observability"
)

var contentTypes = map[string]string{
	graph.FormatJSON: "application/json",
	graph.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	graph.FormatSVG:  "image/svg+xml",
	graph.FormatPNG:  "image/png",
	graph.FormatPDF:  "application/pdf",
}

// =============================================================================
// Read
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.sess.Graph().Nodes)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "items": n, "pending": s.persister.Pending()})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

type graphResponse struct {
	graph.RenderGraph
	Issues []canvas.Issue `json:"issues,omitempty"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := graph.FromCanvas(s.sess.Graph())
	issues := s.sess.Issues()
	s.mu.Unlock()

	if r.URL.Query().Get("hidden") != "true" {
		g = g.Visible()
	}
	s.writeJSON(w, http.StatusOK, graphResponse{RenderGraph: g, Issues: issues})
}

// =============================================================================
// Item lifecycle
// =============================================================================

type addRequest struct {
	ID       string      `json:"id,omitempty"`
	Kind     string      `json:"kind"`
	Parent   string      `json:"parent,omitempty"`
	Label    string      `json:"label,omitempty"`
	Color    string      `json:"color,omitempty"`
	Position *geom.Point `json:"position,omitempty"`
	Size     geom.Size   `json:"size,omitempty"`
}

func (req addRequest) validate() (canvas.Kind, error) {
	kind, err := errors.ValidateKind(req.Kind)
	if err != nil {
		return "", err
	}
	if req.ID != "" {
		if err := errors.ValidateItemID(req.ID); err != nil {
			return "", err
		}
	}
	if err := errors.ValidateLabel(req.Label); err != nil {
		return "", err
	}
	return kind, errors.ValidateColor(req.Color)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := req.validate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.sess.Add(canvas.NewItem{
		ID:       req.ID,
		Kind:     kind,
		Parent:   req.Parent,
		Label:    req.Label,
		Color:    req.Color,
		Position: req.Position,
		Size:     req.Size,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Store the spiral-placed position so reloads keep the node where it
	// first appeared.
	if it.Position == nil {
		if n, ok := s.sess.Graph().Node(it.ID); ok {
			p := n.Position
			it.Position = &p
		}
	}
	if err := s.persister.Put(r.Context(), it); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "save item %s", it.ID))
		return
	}
	s.writeJSON(w, http.StatusCreated, it)
}

type updateRequest struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Label != nil {
		if err := errors.ValidateLabel(*req.Label); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Color != nil {
		if err := errors.ValidateColor(*req.Color); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Label != nil {
		if err := s.sess.Rename(id, *req.Label); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Color != nil {
		if err := s.sess.SetColor(id, *req.Color); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	err := s.persister.Update(r.Context(), id, func(it *canvas.Item) {
		if req.Label != nil {
			it.Label = *req.Label
		}
		if req.Color != nil {
			it.Color = *req.Color
		}
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	it, _ := s.sess.Item(id)
	s.writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cascade := r.URL.Query().Get("cascade") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.sess.Remove(id, cascade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.persister.Delete(r.Context(), res.Removed...); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "delete %s", id))
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// Gestures
// =============================================================================

type moveRequest struct {
	To           *geom.Point `json:"to,omitempty"`
	By           *geom.Point `json:"by,omitempty"`
	End          bool        `json:"end,omitempty"`
	WithChildren *bool       `json:"with_children,omitempty"`
}

type moveResponse struct {
	Changes   []canvas.PositionChange `json:"changes"`
	Committed []canvas.PositionChange `json:"committed,omitempty"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.To != nil && req.By != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "give either to or by, not both"))
		return
	}
	if req.To == nil && req.By == nil && !req.End {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing to or by"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.WithChildren != nil {
		s.sess.SetMoveWithChildren(*req.WithChildren)
	}

	resp := moveResponse{Changes: []canvas.PositionChange{}}
	var err error
	switch {
	case req.To != nil:
		resp.Changes, err = s.sess.Move(id, *req.To)
	case req.By != nil:
		resp.Changes, err = s.sess.DragBy(id, *req.By)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Changes == nil {
		resp.Changes = []canvas.PositionChange{}
	}
	observability.Sync().OnDrag(r.Context(), id, len(resp.Changes))

	if req.End {
		resp.Committed = s.sess.EndDrag()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type parentRequest struct {
	Parent string `json:"parent"`
}

func (s *Server) handleParent(w http.ResponseWriter, r *http.Request) {
	var req parentRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	d := s.sess.Reparent(chi.URLParam(r, "id"), req.Parent)
	s.mu.Unlock()
	s.decided(w, r, d)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var g canvas.ConnectGesture
	if err := decode(r, &g, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	d := s.sess.Connect(g)
	s.mu.Unlock()
	s.decided(w, r, d)
}

// decided reports a reparent decision. Rejections are ordinary results of
// a gesture and use status 200 like accepted moves.
func (s *Server) decided(w http.ResponseWriter, r *http.Request, d canvas.Decision) {
	if d.Reason == canvas.ReasonUnknown {
		s.writeError(w, r, errors.New(errors.ErrCodeItemNotFound, "unknown item in reparent %s -> %s", d.Child, d.Parent))
		return
	}
	observability.Sync().OnReparent(r.Context(), d.Child, d.Parent, string(d.Reason), d.Accepted)
	s.writeJSON(w, http.StatusOK, d)
}

type collapseRequest struct {
	Collapsed *bool `json:"collapsed,omitempty"`
}

type collapseResponse struct {
	ID        string `json:"id"`
	Collapsed bool   `json:"collapsed"`
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req collapseRequest
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		collapsed bool
		err       error
	)
	if req.Collapsed == nil {
		collapsed, err = s.sess.ToggleCollapsed(id)
	} else {
		collapsed = *req.Collapsed
		err = s.sess.SetCollapsed(id, collapsed)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collapseResponse{ID: id, Collapsed: collapsed})
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	var size geom.Size
	if err := decode(r, &size, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if size.Width < 0 || size.Height < 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "size must not be negative"))
		return
	}
	s.mu.Lock()
	err := s.sess.ReportSize(chi.URLParam(r, "id"), size)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var v canvas.Viewport
	if err := decode(r, &v, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	s.sess.SetViewport(v)
	s.mu.Unlock()

	if vs, ok := s.store.(viewportStore); ok {
		if err := vs.SaveViewport(r.Context(), v); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "save viewport"))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout and export
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()
	observability.Layout().OnLayoutStart(ctx, id, len(s.sess.Index().Descendants(id))+1)
	start := time.Now()
	pos, err := s.sess.AutoLayout(id)
	observability.Layout().OnLayoutComplete(ctx, id, len(pos), time.Since(start), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, graph.FromPositions(id, pos, s.export.Layout))
}

func (s *Server) handleLayoutAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.sess.LayoutAll()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"subtrees": n})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := errors.ValidateFormat(format, graph.Formats...); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	g := graph.FromCanvas(s.sess.Graph())
	s.mu.Unlock()

	opts := s.export
	opts.Formats = []string{format}
	q := r.URL.Query()
	if q.Get("hidden") == "true" {
		opts.IncludeHidden = true
	}
	if q.Get("detailed") == "true" {
		opts.Detailed = true
	}
	out, hit, err := s.runner.ExportWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(out[format])
}
