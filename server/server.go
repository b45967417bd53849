// Package server exposes the credentials store to a local dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/resolver"
	"github.com/Brawl345/supacreds/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var log = logger.New("server")

type Resolver interface {
	Resolve(ctx context.Context, cfg resolver.Config) (model.Bundle, error)
}

type Server struct {
	resolver    Resolver
	credentials *store.Credentials
	// defaults fill whatever a resolve request leaves out.
	defaults resolver.Config
}

func New(r Resolver, credentials *store.Credentials, defaults resolver.Config) *Server {
	return &Server{
		resolver:    r,
		credentials: credentials,
		defaults:    defaults,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger,
		middleware.Timeout(middlewareTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/credentials", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Get("/", s.getCredentials)
		r.Delete("/", s.clearCredentials)
		r.Post("/resolve", s.resolveCredentials)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	log.Info().Str("address", listener.Addr().String()).Msg("HTTP server started")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Send()
	})
}
