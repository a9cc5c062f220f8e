// Package server exposes code execution and snippet management over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/snippet"
)

// Archiver uploads export bundles to remote storage.
type Archiver interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RunRate         float64
	RunBurst        int
	MaxBodyBytes    int64
}

const defaultMaxBodyBytes = 10 << 20

type Server struct {
	cfg        Config
	dispatcher *executor.Dispatcher
	snippets   *snippet.Service
	archive    Archiver
	limiter    *clientLimiter
	logger     *slog.Logger
	now        func() time.Time
}

// New wires a Server. archive may be nil, in which case archive uploads
// answer 503.
func New(cfg Config, d *executor.Dispatcher, snippets *snippet.Service, archive Archiver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		snippets:   snippets,
		archive:    archive,
		logger:     logger,
		now:        time.Now,
	}
	if cfg.RunRate > 0 {
		s.limiter = newClientLimiter(cfg.RunRate, cfg.RunBurst)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitBody)

		r.With(s.rateLimit).Post("/run", s.run)
		r.Get("/languages", s.languages)
		r.Get("/stats", s.stats)
		r.Get("/export", s.export)
		r.Post("/export/archive", s.exportArchive)
		r.Post("/import", s.importBundle)

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", s.listSnippets)
			r.Post("/", s.createSnippet)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getSnippet)
				r.Put("/", s.updateSnippet)
				r.Delete("/", s.deleteSnippet)
				r.Get("/revisions", s.listRevisions)
				r.Post("/revisions", s.saveRevision)
				r.Post("/revisions/{revisionID}/restore", s.restoreRevision)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("codepit server listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
