package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// NewRouter - registers the game API routes.
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", h.PingHandler)
	mux.HandleFunc("POST /games", h.CreateGame)
	mux.HandleFunc("GET /games/{id}", h.GetGame)
	mux.HandleFunc("DELETE /games/{id}", h.DeleteGame)
	mux.HandleFunc("POST /games/{id}/turn", h.MakeTurn)
	mux.HandleFunc("POST /games/{id}/restart", h.RestartGame)

	return mux
}

// Start - serves the API until ctx is canceled.
func Start(ctx context.Context, port string, h Handlers) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already canceled
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
