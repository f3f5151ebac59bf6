package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/entropymap/internal/images"
	"github.com/lehigh-university-libraries/entropymap/internal/processing"
)

type Handler struct {
	service        *processing.Service
	fetcher        *images.Fetcher
	staticDir      string
	imagesDir      string
	maxUploadBytes int64
}

// Options configures where static content lives and how large uploads may be
type Options struct {
	StaticDir      string
	ImagesDir      string
	MaxUploadBytes int64
}

func New(service *processing.Service, opts Options) *Handler {
	return &Handler{
		service:        service,
		fetcher:        images.NewFetcher(opts.MaxUploadBytes),
		staticDir:      opts.StaticDir,
		imagesDir:      opts.ImagesDir,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", h.HandleUpload)
	mux.HandleFunc("/status/", h.HandleStatus)
	mux.HandleFunc("/download/", h.HandleDownload)
	mux.HandleFunc("/getavg/", h.HandleAverage)
	mux.HandleFunc("/images/", h.HandleImages)
	mux.HandleFunc("/howitworks", h.HandlePage("howitworks.html"))
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleIndex)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, code int) {
	slog.Warn(message, "code", code)
	h.writeJSON(w, code, map[string]string{"error": message})
}
