package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server, storage and processing settings.
type Config struct {
	Port           string        `yaml:"port"`
	UploadDir      string        `yaml:"upload_dir"`
	ProcessedDir   string        `yaml:"processed_dir"`
	StaticDir      string        `yaml:"static_dir"`
	ImagesDir      string        `yaml:"images_dir"`
	KernelSize     int           `yaml:"kernel_size"`
	Workers        int           `yaml:"workers"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	Cleanup        CleanupConfig `yaml:"cleanup"`
}

// CleanupConfig controls the artifact janitor
type CleanupConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxAge   time.Duration `yaml:"max_age"`
}

func Default() Config {
	return Config{
		Port:           "5000",
		UploadDir:      "uploads",
		ProcessedDir:   "processed",
		StaticDir:      "static",
		ImagesDir:      "images",
		KernelSize:     3,
		Workers:        runtime.NumCPU(),
		MaxUploadBytes: 10 * 1024 * 1024,
		Cleanup: CleanupConfig{
			Interval: time.Hour,
			MaxAge:   time.Minute,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// path is not empty), then ENTROPYMAP_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"ENTROPYMAP_PORT":          &cfg.Port,
		"ENTROPYMAP_UPLOAD_DIR":    &cfg.UploadDir,
		"ENTROPYMAP_PROCESSED_DIR": &cfg.ProcessedDir,
		"ENTROPYMAP_STATIC_DIR":    &cfg.StaticDir,
		"ENTROPYMAP_IMAGES_DIR":    &cfg.ImagesDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ENTROPYMAP_KERNEL_SIZE": &cfg.KernelSize,
		"ENTROPYMAP_WORKERS":     &cfg.Workers,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("ENTROPYMAP_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ENTROPYMAP_MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}

	durations := map[string]*time.Duration{
		"ENTROPYMAP_CLEANUP_INTERVAL": &cfg.Cleanup.Interval,
		"ENTROPYMAP_CLEANUP_MAX_AGE":  &cfg.Cleanup.MaxAge,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	return nil
}

// Validate checks the settings that would otherwise fail deep inside a job.
func (c Config) Validate() error {
	var errs []error
	if c.KernelSize <= 0 || c.KernelSize%2 == 0 {
		errs = append(errs, fmt.Errorf("kernel_size must be a positive odd number, got %d", c.KernelSize))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if c.Cleanup.Interval <= 0 {
		errs = append(errs, errors.New("cleanup.interval must be positive"))
	}
	if c.Cleanup.MaxAge <= 0 {
		errs = append(errs, errors.New("cleanup.max_age must be positive"))
	}
	if c.UploadDir == "" || c.ProcessedDir == "" {
		errs = append(errs, errors.New("upload_dir and processed_dir are required"))
	}
	return errors.Join(errs...)
}
