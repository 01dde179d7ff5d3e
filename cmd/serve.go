package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/handlers"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var persist bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the pdcheck HTTP API on the specified port.

POST /api/analyze takes a JSON request with title, author, work_type,
country, category and work_category. With the store enabled every analysed
work is resolved against the SQLite database and can be read back from
GET /api/works and GET /api/works/{id or content key}.`,
		Example: `  # Start server on default port 8888
  pdcheck serve

  # Start server on custom port without persistence
  pdcheck serve --port 3000 --store=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var store identity.Store
			var works handlers.WorkReader
			if persist {
				s, err := storage.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer s.Close()
				store, works = s, s
				slog.Info("Work store opened", "path", cfg.DBPath)
			}

			a, err := analyzer.Build(cfg, store)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := handlers.New(a, works)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("pdcheck API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give in-flight analyses time to finish
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SourceTimeout+5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "error", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().BoolVar(&persist, "store", true, "Resolve and persist analysed works in the SQLite store")

	return cmd
}
