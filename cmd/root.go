package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "entropymap",
		Short: "Perturb images with their local entropy map",
		Long: `Entropymap computes a local Shannon-entropy map of an image and shifts every
pixel by its entropy, producing a visually distinct derivative image.

Run a transform directly from the command line, or start the web service to
upload images and poll for the processed result.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTransformCmd())
	cmd.AddCommand(newSweepCmd())

	return cmd
}
