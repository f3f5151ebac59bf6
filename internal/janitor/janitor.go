package janitor

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Janitor deletes files older than MaxAge from a set of directories. It keeps
// no state between sweeps and knows nothing about jobs.
type Janitor struct {
	Dirs     []string
	MaxAge   time.Duration
	Interval time.Duration

	now func() time.Time
}

func New(maxAge, interval time.Duration, dirs ...string) *Janitor {
	return &Janitor{
		Dirs:     dirs,
		MaxAge:   maxAge,
		Interval: interval,
		now:      time.Now,
	}
}

// Sweep removes every regular file in dir whose modification time is before
// now-MaxAge. Per-file failures are logged and skipped.
func (j *Janitor) Sweep(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.MaxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Unable to stat file", "path", path, "err", err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Unable to remove file", "path", path, "err", err)
			}
			continue
		}
		removed++
		slog.Info("Removed expired file", "path", path, "modified", info.ModTime())
	}

	return removed, nil
}

// SweepAll runs one sweep over every directory in turn.
func (j *Janitor) SweepAll() int {
	total := 0
	for _, dir := range j.Dirs {
		n, err := j.Sweep(dir)
		if err != nil {
			slog.Error("Sweep failed", "dir", dir, "err", err)
		}
		total += n
	}
	return total
}

// Run sweeps each directory every Interval until ctx is done. Each directory
// has its own loop, so sweeps of one directory never overlap.
func (j *Janitor) Run(ctx context.Context) error {
	if j.Interval <= 0 {
		return errors.New("janitor interval must be positive")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, dir := range j.Dirs {
		g.Go(func() error {
			j.loop(ctx, dir)
			return nil
		})
	}
	return g.Wait()
}

func (j *Janitor) loop(ctx context.Context, dir string) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	slog.Debug("Janitor started", "dir", dir, "interval", j.Interval, "max_age", j.MaxAge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Sweep(dir)
			if err != nil {
				slog.Error("Sweep failed", "dir", dir, "err", err)
				continue
			}
			slog.Debug("Sweep finished", "dir", dir, "removed", n)
		}
	}
}
