package processing

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/entropymap/internal/entropy"
	"github.com/lehigh-university-libraries/entropymap/internal/models"
	"github.com/lehigh-university-libraries/entropymap/internal/storage"
	"github.com/lehigh-university-libraries/entropymap/internal/worker"
)

var (
	ErrInvalidFormat = errors.New("invalid file format")
	ErrNotFound      = errors.New("not found")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// AllowedExtension reports whether filename has an accepted image extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Options configures a Service.
type Options struct {
	UploadDir    string
	ProcessedDir string
	KernelSize   int
	Workers      int
}

// Service accepts uploads, runs the entropy transform in the background and
// records the outcome in the job store.
type Service struct {
	store        *storage.JobStore
	pool         *worker.Pool
	uploadDir    string
	processedDir string
	kernelSize   int
}

func NewService(store *storage.JobStore, opts Options) (*Service, error) {
	if opts.KernelSize == 0 {
		opts.KernelSize = entropy.DefaultKernelSize
	}
	if opts.KernelSize < 0 || opts.KernelSize%2 == 0 {
		return nil, fmt.Errorf("%w: %d", entropy.ErrInvalidKernel, opts.KernelSize)
	}
	for _, dir := range []string{opts.UploadDir, opts.ProcessedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Service{
		store:        store,
		pool:         worker.NewPool(opts.Workers),
		uploadDir:    opts.UploadDir,
		processedDir: opts.ProcessedDir,
		kernelSize:   opts.KernelSize,
	}, nil
}

// Submit saves the upload, registers a processing job and schedules the
// transform. It returns as soon as the job is registered.
func (s *Service) Submit(filename string, data []byte) (string, error) {
	if !AllowedExtension(filename) {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, filename)
	}

	jobID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	sourcePath := filepath.Join(s.uploadDir, jobID+ext)

	if err := os.WriteFile(sourcePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	if _, err := s.store.Create(jobID, sourcePath); err != nil {
		return "", err
	}

	slog.Info("Job submitted", "job_id", jobID, "filename", filename, "bytes", len(data))

	s.pool.Go(func() { s.run(jobID, sourcePath) })

	return jobID, nil
}

func (s *Service) run(jobID, sourcePath string) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(jobID, fmt.Errorf("panic during processing: %v", r))
		}
	}()

	start := time.Now()
	artifactPath, avg, err := s.Process(jobID, sourcePath)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	if err := s.store.Complete(jobID, artifactPath, avg); err != nil {
		slog.Error("Unable to record job completion", "job_id", jobID, "err", err)
		return
	}
	slog.Info("Job done", "job_id", jobID, "entropy_avg", avg, "duration", time.Since(start))
}

func (s *Service) fail(jobID string, err error) {
	slog.Error("Job failed", "job_id", jobID, "err", err)
	if ferr := s.store.Fail(jobID, err); ferr != nil {
		slog.Error("Unable to record job failure", "job_id", jobID, "err", ferr)
	}
}

// Process transforms the image at sourcePath and writes the PNG artifact for
// jobID. It returns the artifact path and the mean entropy.
func (s *Service) Process(jobID, sourcePath string) (string, float64, error) {
	img, err := DecodeFile(sourcePath)
	if err != nil {
		return "", 0, err
	}

	out, m, err := entropy.Transform(img, s.kernelSize)
	if err != nil {
		return "", 0, fmt.Errorf("failed to transform image: %w", err)
	}

	artifactPath := filepath.Join(s.processedDir, jobID+"_modified.png")
	if err := EncodePNGFile(artifactPath, out); err != nil {
		return "", 0, err
	}

	return artifactPath, m.Mean(), nil
}

// Status returns the current job record, or a record with StatusUnknown.
func (s *Service) Status(jobID string) models.Job {
	job, exists := s.store.Get(jobID)
	if !exists {
		return models.Job{ID: jobID, Status: models.StatusUnknown}
	}
	return job
}

// Artifact returns the artifact path of a done job whose file still exists.
func (s *Service) Artifact(jobID string) (string, error) {
	path, ok := s.store.Artifact(jobID)
	if !ok {
		return "", ErrNotFound
	}
	// the janitor may have removed it already
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// Summary returns the mean entropy of a done job.
func (s *Service) Summary(jobID string) (float64, error) {
	avg, ok := s.store.Summary(jobID)
	if !ok {
		return 0, ErrNotFound
	}
	return avg, nil
}

// Wait blocks until every submitted job has finished.
func (s *Service) Wait() {
	s.pool.Wait()
}

// DecodeFile decodes a PNG or JPEG file.
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNGFile writes img to path as PNG.
func EncodePNGFile(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
