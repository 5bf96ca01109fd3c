// Package server implements gitmorph serve: an HTTP API and websocket feed
// around one visualization session.
//
// Routes, relative to the configured base path:
//
//	GET  /api/info        project name, description and version
//	GET  /api/snapshot    the latest positioned snapshot
//	POST /api/visualize   {"before"?: log, "after": log} → transition plan
//	POST /api/highlight   {"hash": h} → neighbourhood of h
//	GET  /api/ws          websocket stream of plan, snapshot and highlight messages
//	GET  /metrics         Prometheus metrics
//	GET  /healthz         liveness
//
// When a Source is configured, the server also reads the repository log at
// startup and again whenever its refs change.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gitmorph/internal/config"
	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/cache"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/pipeline"
	"github.com/matzehuels/gitmorph/pkg/session"
)

const (
	shutdownTimeout = 5 * time.Second
	reloadAttempts  = 3
	reloadDelay     = 100 * time.Millisecond
)

// Options configures a Server. Only Config is required.
type Options struct {
	Config config.Config

	// Source is the repository to follow. Nil disables loading and watching;
	// the session then only changes through the API.
	Source Source

	// Cache backs the layout cache. Nil means an in-memory LRU.
	Cache cache.Cache

	// Metrics serves /metrics. Nil means a fresh registry.
	Metrics *Metrics

	// Scheduler times transitions. Nil means the wall clock.
	Scheduler animation.Scheduler

	Logger *log.Logger
}

// Server owns the session, its websocket hub and the HTTP routes.
type Server struct {
	cfg     config.Config
	source  Source
	runner  *pipeline.Runner
	session *session.Session
	hub     *Hub
	metrics *Metrics
	logger  *log.Logger
	router  chi.Router

	// showMu serializes requests that change the session, so a before/after
	// reset and its transition are never split by another request.
	showMu sync.Mutex

	mu      sync.Mutex
	logHash string
}

// New builds a server. It does not start listening.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := session.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache(cache.DefaultMemoryEntries)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(prometheus.NewRegistry())
	}

	s := &Server{
		cfg:     cfg,
		source:  opts.Source,
		metrics: opts.Metrics,
		logger:  logger,
	}
	s.runner = pipeline.NewRunner(
		opts.Cache,
		cache.NewScopedKeyer(nil, "project:"+cfg.ProjectName+":"),
		logger,
	)
	s.hub = NewHub(logger, s.metrics.setClients)

	player := &animation.Player{Scheduler: opts.Scheduler, Duration: animation.DefaultDuration}
	s.session = session.New(&broadcastRenderer{hub: s.hub, player: player}, session.Options{
		Policy:   policy,
		Layouter: s.runner.Layouter(s.pipelineOptions()),
		Logger:   logger,
	})
	s.router = s.routes()
	return s, nil
}

func (s *Server) pipelineOptions() pipeline.Options {
	return pipeline.Options{Width: s.cfg.Width, Height: s.cfg.Height, Logger: s.logger}
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler { return s.router }

// Session returns the visualization session.
func (s *Server) Session() *session.Session { return s.session }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Reload reads the source log and visualizes it. An unchanged log is not
// re-animated.
func (s *Server) Reload(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	var text string
	err := retry(ctx, reloadAttempts, reloadDelay, func() (err error) {
		text, err = s.source.Log(ctx)
		return err
	})
	if err != nil {
		return err
	}

	h := cache.Hash([]byte(text))
	s.mu.Lock()
	unchanged := h == s.logHash
	s.mu.Unlock()
	if unchanged {
		s.logger.Debug("repository log unchanged")
		return nil
	}

	s.showMu.Lock()
	res, err := s.session.Visualize(ctx, text)
	s.showMu.Unlock()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.logHash = h
	s.mu.Unlock()
	if res.Queued {
		s.logger.Info("repository changed, transition queued", "commits", res.Snapshot.Len())
	} else {
		st := res.Plan.Stats()
		s.logger.Info("repository changed",
			"commits", res.Snapshot.Len(),
			"entering", st.NodesEntering,
			"exiting", st.NodesExiting)
	}
	return nil
}

// Run serves HTTP on the configured address until ctx is done. With a
// Source, it loads the log first and watches the repository when enabled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.source != nil {
		if err := s.Reload(ctx); err != nil {
			s.logger.Warn("initial repository load", "error", err)
		}
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", "http://"+ln.Addr().String()+s.cfg.BasePath)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return s.hub.Run(ctx) })
	if s.source != nil && s.cfg.Watch {
		g.Go(func() error {
			if err := s.watch(ctx); err != nil {
				s.logger.Warn("repository watcher stopped", "error", err)
			}
			return nil
		})
	}
	err := g.Wait()
	s.session.Cancel()
	if cerr := s.runner.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) snapshotMessage() Message {
	snap := s.session.Latest()
	if snap == nil {
		snap = graph.New()
	}
	return Message{Type: MessageSnapshot, Snapshot: snap}
}
