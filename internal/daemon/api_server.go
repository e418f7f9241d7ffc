package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"photoreport/internal/logging"
	"photoreport/internal/services"
	"photoreport/internal/session"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	ctrl   *session.Controller

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, ctrl *session.Controller, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		ctrl:   ctrl,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(srv.logger.Handler(), slog.LevelError),
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestID)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/report", func(r chi.Router) {
		r.Get("/", s.handleReport)
		r.Put("/metadata", s.handleMetadata)
		r.Post("/save", s.handleSave)
		r.Post("/load", s.handleLoad)
		r.Post("/clear", s.handleClear)
	})

	r.Route("/api/photos", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Post("/empty", s.handleAddEmpty)
		r.Put("/{id}/image", s.handleReplaceImage)
		r.Put("/{id}/caption", s.handleCaption)
		r.Delete("/{id}", s.handleRemove)
	})

	r.Get("/print", s.handlePrint)
	return r
}

// requestID tags every request with an id that flows into log context and
// the X-Request-ID response header.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) listen() (string, error) {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return "", fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	return listener.Addr().String(), nil
}

// serve blocks until ctx is cancelled, then shuts the server down.
func (s *apiServer) serve(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.listen(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", logging.String("address", s.listener.Addr().String()))
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("api server error", logging.Error(err))
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return <-errCh
}
