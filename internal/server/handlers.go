package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gitmorph/pkg/buildinfo"
	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/observability"
	"github.com/matzehuels/gitmorph/pkg/session"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

const maxBodyBytes = 4 << 20

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	api := func(r chi.Router) {
		r.Get("/api/info", s.handleInfo)
		r.Get("/api/snapshot", s.handleSnapshot)
		r.Post("/api/visualize", s.handleVisualize)
		r.Post("/api/highlight", s.handleHighlight)
		r.Get("/api/ws", s.handleWS)
	}
	if s.cfg.BasePath == "" {
		api(r)
	} else {
		r.Route(s.cfg.BasePath, api)
	}
	return r
}

// instrument reports each request to the HTTP hooks, labelled by route
// pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

type infoResponse struct {
	ProjectName string `json:"project_name"`
	Description string `json:"description"`
	BasePath    string `json:"base_path"`
	Version     string `json:"version"`
	Policy      string `json:"policy"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		ProjectName: s.cfg.ProjectName,
		Description: s.cfg.Description,
		BasePath:    s.cfg.BasePath,
		Version:     buildinfo.Get().Version,
		Policy:      string(s.session.Policy()),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotMessage().Snapshot)
}

type visualizeRequest struct {
	Before *string `json:"before"`
	After  string  `json:"after"`
}

type visualizeResponse struct {
	Plan     *transition.Plan  `json:"plan,omitempty"`
	Stats    *transition.Stats `json:"stats,omitempty"`
	Snapshot *graph.Snapshot   `json:"snapshot"`
	Warnings []graph.Warning   `json:"warnings"`
	Queued   bool              `json:"queued,omitempty"`
}

// handleVisualize lays out both logs before touching the session, so a
// malformed log in either leaves the visualization as it was.
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	var req visualizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	layouter := s.runner.Layouter(s.pipelineOptions())

	var warnings []graph.Warning
	if req.Before != nil {
		before, bw, err := layouter.Layout(ctx, *req.Before)
		if err != nil {
			writeError(w, side("before", err))
			return
		}
		after, aw, err := layouter.Layout(ctx, req.After)
		if err != nil {
			writeError(w, side("after", err))
			return
		}
		res, err := s.showBeforeAfter(before, after)
		if err != nil {
			writeError(w, err)
			return
		}
		warnings = append(bw, aw...)
		writeJSON(w, http.StatusOK, newVisualizeResponse(res.Plan, res.Snapshot, warnings, res.Queued))
		return
	}

	s.showMu.Lock()
	res, err := s.session.Visualize(ctx, req.After)
	s.showMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVisualizeResponse(res.Plan, res.Snapshot, res.Warnings, res.Queued))
}

// showBeforeAfter resets the baseline to before and transitions to after as
// one step.
func (s *Server) showBeforeAfter(before, after *graph.Snapshot) (*session.Result, error) {
	s.showMu.Lock()
	defer s.showMu.Unlock()
	if s.session.Policy() == session.PolicyReject && s.session.InFlight() != nil {
		return nil, session.ErrTransitionInFlight
	}
	s.session.Reset(before)
	s.hub.Broadcast(Message{Type: MessageSnapshot, Snapshot: before})
	return s.session.Show(after)
}

// side names which log of a before/after pair failed.
func side(name string, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		return err
	}
	return errors.Wrap(code, err, "%s log", name)
}

func newVisualizeResponse(plan *transition.Plan, snap *graph.Snapshot, warnings []graph.Warning, queued bool) visualizeResponse {
	if warnings == nil {
		warnings = []graph.Warning{}
	}
	resp := visualizeResponse{Plan: plan, Snapshot: snap, Warnings: warnings, Queued: queued}
	if plan != nil {
		st := plan.Stats()
		resp.Stats = &st
	}
	return resp
}

type highlightRequest struct {
	Hash string `json:"hash"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateHash(req.Hash); err != nil {
		writeError(w, err)
		return
	}
	nb, err := s.session.Highlight(req.Hash)
	if err != nil {
		writeError(w, err)
		return
	}
	s.hub.Broadcast(Message{Type: MessageHighlight, Highlight: &nb})
	writeJSON(w, http.StatusOK, nb)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.snapshotMessage())
}

// =============================================================================
// JSON helpers
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Line    *int        `json:"line,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp := errorResponse{Code: code, Message: err.Error()}
	var pe *commitlog.ParseError
	if stderrors.As(err, &pe) && pe.LineNumber > 0 {
		resp.Line = &pe.LineNumber
	}
	writeJSON(w, errors.HTTPStatus(err), resp)
}
