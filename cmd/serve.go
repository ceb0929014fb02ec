package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkmark-app/inkmark/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var engine engineFlags
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the transcription job API server",
		Long: `Starts an HTTP JSON API for transcription jobs on the specified port.

Page images are uploaded as multipart form files; each upload becomes a job
that runs through the full transcription engine. Jobs can be listed, polled
for progress, cancelled, and previewed as rendered HTML once finished.`,
		Example: `  # Start server on default port 8888
  inkmark serve

  # Start server on custom port
  inkmark serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, provider, model, err := engine.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			handler := handlers.New(eng, provider, model)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/jobs", handler.HandleJobs)
			mux.HandleFunc("/api/jobs/", handler.HandleJobDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Inkmark job API available", "addr", addr, "provider", provider, "model", model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	engine.register(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
