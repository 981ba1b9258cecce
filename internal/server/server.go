// Package server exposes badges and session status over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// BadgeRenderer draws a badge for a session record.
type BadgeRenderer interface {
	Render(ctx context.Context, format render.Format, rec *domain.SessionRecord, cfg domain.RenderConfig) (*render.Badge, error)
}

// Options configure the server.
type Options struct {
	Addr         string
	DefaultTheme string
	DefaultWidth int
	CacheTTL     time.Duration
	// Source and CacheBackend are reported by the status endpoint.
	Source       string
	CacheBackend string
	Themes       []string
}

// Server serves badges rendered from the session provider.
type Server struct {
	logger   *zap.Logger
	renderer BadgeRenderer
	sessions domain.SessionProvider
	cache    domain.Cache
	opts     Options
	router   chi.Router

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	serveErr chan error
}

// New creates a server and its routes. The server owns cache and closes it
// on Stop.
func New(logger *zap.Logger, renderer BadgeRenderer, sessions domain.SessionProvider, cache domain.Cache, opts Options) *Server {
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = domain.DefaultWidth
	}
	s := &Server{
		logger:   logger,
		renderer: renderer,
		sessions: sessions,
		cache:    cache,
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/now-playing", s.handleBadge(render.FormatPNG))
		r.Get("/now-playing-png", s.handleBadge(render.FormatPNG))
		r.Get("/now-playing-svg", s.handleBadge(render.FormatSVG))
		r.Get("/now-playing/{format}", s.handleBadgeByFormat)
		r.Get("/cache/clear", s.handleClearCache)
		r.Post("/cache/clear", s.handleClearCache)
	})
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}

	s.listener = ln
	s.serveErr = make(chan error, 1)
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server, errc chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
	}(s.srv, s.serveErr)

	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down gracefully and closes the cache.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, errc := s.srv, s.serveErr
	s.srv = nil
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = multierr.Append(err, srv.Shutdown(ctx))
		err = multierr.Append(err, <-errc)
	}
	err = multierr.Append(err, s.cache.Close())

	if err != nil {
		s.logger.Error("HTTP server shutdown incomplete", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("requestID", middleware.GetReqID(r.Context())))
	})
}
