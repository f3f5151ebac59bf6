package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/entropymap/internal/entropy"
	"github.com/lehigh-university-libraries/entropymap/internal/processing"
	"github.com/spf13/cobra"
)

func newTransformCmd() *cobra.Command {
	var kernelSize int
	var output string
	var entropyOut string
	var show bool

	cmd := &cobra.Command{
		Use:   "transform <image>",
		Short: "Transform a single image synchronously",
		Long: `Computes the entropy map of an image and writes the perturbed result next to
it as <name>_modified.png.

The entropy map itself can be exported as a Parquet file of (x, y, entropy)
rows for inspection.`,
		Example: `  # Transform a photo
  entropymap transform ./photo.jpg

  # Use a 5x5 window, export the entropy map and open the result
  entropymap transform ./photo.jpg --kernel 5 --entropy-out photo_entropy.parquet --show`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath := args[0]
			if output == "" {
				output = ModifiedPath(imagePath)
			}
			return runTransform(imagePath, output, entropyOut, kernelSize, show)
		},
	}

	cmd.Flags().IntVarP(&kernelSize, "kernel", "k", entropy.DefaultKernelSize, "Window size (positive odd number)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <dir>/<name>_modified.png)")
	cmd.Flags().StringVar(&entropyOut, "entropy-out", "", "Write the entropy map to this Parquet file")
	cmd.Flags().BoolVar(&show, "show", false, "Open the result in the system image viewer")

	return cmd
}

// ModifiedPath derives the output path for a transformed image.
func ModifiedPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(dir, base+"_modified.png")
}

func runTransform(imagePath, output, entropyOut string, kernelSize int, show bool) error {
	start := time.Now()

	img, err := processing.DecodeFile(imagePath)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	slog.Info("Calculating entropy map", "path", imagePath, "width", bounds.Dx(), "height", bounds.Dy(), "kernel", kernelSize)

	lastPct := -10
	m, err := entropy.BuildWithProgress(img, kernelSize, func(done, total int) {
		pct := done * 100 / total
		if pct/10 != lastPct/10 {
			lastPct = pct
			slog.Info("Progress", "percent", pct)
		}
	})
	if err != nil {
		return err
	}

	slog.Info("Modifying image based on entropy")
	out, err := entropy.Remap(img, m)
	if err != nil {
		return err
	}

	if err := processing.EncodePNGFile(output, out); err != nil {
		return err
	}

	if entropyOut != "" {
		if err := writeEntropyParquet(entropyOut, m); err != nil {
			return err
		}
		slog.Info("Entropy map written", "path", entropyOut)
	}

	slog.Info("Image written", "path", output, "entropy_avg", m.Mean(), "duration", time.Since(start))

	if show {
		if err := openViewer(output); err != nil {
			slog.Warn("Unable to open image viewer", "err", err)
		}
	}
	return nil
}

func writeEntropyParquet(path string, m *entropy.Map) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := entropy.WriteParquet(file, m); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func openViewer(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", path)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	return c.Start()
}
