package images

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"
)

var ErrTooLarge = errors.New("image exceeds size limit")

// Fetcher downloads source images submitted by URL
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: maxBytes,
	}
}

// FilenameFromURL returns the last path element of an http(s) image URL.
func FilenameFromURL(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid image URL: %s", imageURL)
	}
	filename := path.Base(u.Path)
	if filename == "/" || filename == "." {
		return "", fmt.Errorf("image URL has no file name: %s", imageURL)
	}
	return filename, nil
}

// Fetch downloads imageURL, refusing bodies larger than MaxBytes.
func (f *Fetcher) Fetch(imageURL string) ([]byte, error) {
	if _, err := FilenameFromURL(imageURL); err != nil {
		return nil, err
	}

	resp, err := f.HTTPClient.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, ErrTooLarge
	}

	slog.Debug("Downloaded image", "url", imageURL, "bytes", len(data))
	return data, nil
}
