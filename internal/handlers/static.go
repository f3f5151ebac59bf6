package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.servePage(w, r, "upload.html")
}

// HandlePage serves a fixed HTML page from the static directory.
func (h *Handler) HandlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.servePage(w, r, name)
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, filepath.Join(h.staticDir, name))
}

func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/images/")

	// Prevent directory traversal attacks
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.imagesDir, filename))
}
