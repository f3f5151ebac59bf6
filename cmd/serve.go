package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/entropymap/internal/config"
	"github.com/lehigh-university-libraries/entropymap/internal/handlers"
	"github.com/lehigh-university-libraries/entropymap/internal/janitor"
	"github.com/lehigh-university-libraries/entropymap/internal/processing"
	"github.com/lehigh-university-libraries/entropymap/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web service",
		Long: `Starts the entropymap web service.

Uploaded images are transformed in the background. Poll /status/<id> until the
job is done, then fetch /download/<id> and /getavg/<id>. Files in the upload and
processed directories are removed by a periodic cleanup once they are older than
the configured max age.`,
		Example: `  # Start server on default port 5000
  entropymap serve

  # Start server on custom port with a config file
  entropymap serve --port 3000 --config entropymap.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			service, err := processing.NewService(storage.New(), processing.Options{
				UploadDir:    cfg.UploadDir,
				ProcessedDir: cfg.ProcessedDir,
				KernelSize:   cfg.KernelSize,
				Workers:      cfg.Workers,
			})
			if err != nil {
				return err
			}

			handler := handlers.New(service, handlers.Options{
				StaticDir:      cfg.StaticDir,
				ImagesDir:      cfg.ImagesDir,
				MaxUploadBytes: cfg.MaxUploadBytes,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cleaner := janitor.New(cfg.Cleanup.MaxAge, cfg.Cleanup.Interval, cfg.UploadDir, cfg.ProcessedDir)
			janitorDone := make(chan error, 1)
			go func() {
				janitorDone <- cleaner.Run(ctx)
			}()

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Entropymap available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Waiting for running jobs")
				service.Wait()
				if err := <-janitorDone; err != nil {
					slog.Error("Cleanup stopped with error", "err", err)
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			case err := <-janitorDone:
				if err != nil {
					return err
				}
				return errors.New("cleanup stopped unexpectedly")
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5000", "Port to listen on")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	return cmd
}
