// Package server is the sync backend the remote store talks to. It keeps
// the lite note snapshot in a local store and uploaded audio files in a
// directory.
//
// Routes:
//
//	GET  /api/notes   lite snapshot
//	PUT  /api/notes   replace the snapshot
//	POST /api/music   store an audio file (base64 JSON body)
//	GET  /healthz
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aretw0/corkboard/pkg/core"
)

// Server serves the sync API.
type Server struct {
	store          core.LocalStore
	musicDir       string
	logger         *slog.Logger
	validate       *validator.Validate
	allowedOrigins string
	router         *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins sets the comma-separated CORS origins. The default is
// "*".
func WithAllowedOrigins(origins string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// New creates a server keeping notes in store and audio under musicDir.
func New(store core.LocalStore, musicDir string, opts ...Option) *Server {
	s := &Server{
		store:          store,
		musicDir:       musicDir,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:       validator.New(),
		allowedOrigins: "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggerMiddleware(s.logger))
	r.Use(corsMiddleware(s.allowedOrigins))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/notes", s.listNotes).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes", s.replaceNotes).Methods("PUT", "OPTIONS")
	api.HandleFunc("/music", s.uploadMusic).Methods("POST", "OPTIONS")

	r.HandleFunc("/healthz", s.health).Methods("GET")
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sync server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("sync server stopped")
	return nil
}
