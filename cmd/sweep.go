package cmd

import (
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/entropymap/internal/config"
	"github.com/lehigh-university-libraries/entropymap/internal/janitor"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var maxAge time.Duration
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep [dir...]",
		Short: "Remove expired files once",
		Long: `Runs a single cleanup pass, removing files older than --max-age.

Without arguments the configured upload and processed directories are swept.`,
		Example: `  # Sweep the configured directories using the configured max age
  entropymap sweep

  # Remove anything older than a day from a specific directory
  entropymap sweep --max-age 24h ./processed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-age") {
				cfg.Cleanup.MaxAge = maxAge
			}

			dirs := args
			if len(dirs) == 0 {
				dirs = []string{cfg.UploadDir, cfg.ProcessedDir}
			}

			cleaner := janitor.New(cfg.Cleanup.MaxAge, cfg.Cleanup.Interval, dirs...)
			removed := cleaner.SweepAll()
			slog.Info("Sweep complete", "removed", removed, "max_age", cfg.Cleanup.MaxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", time.Minute, "Remove files older than this")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	return cmd
}
