package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/entropymap/internal/images"
	"github.com/lehigh-university-libraries/entropymap/internal/processing"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageURL == "" {
		h.writeJSONError(w, "image_url is required", http.StatusBadRequest)
		return
	}
	filename, err := images.FilenameFromURL(request.ImageURL)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !processing.AllowedExtension(filename) {
		h.writeJSONError(w, "Invalid file format", http.StatusBadRequest)
		return
	}

	data, err := h.fetcher.Fetch(request.ImageURL)
	if err != nil {
		h.writeJSONError(w, "Failed to fetch image: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.submit(w, filename, data)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSONError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// reject early so nothing is read or stored for a bad extension
	if !processing.AllowedExtension(header.Filename) {
		h.writeJSONError(w, "Invalid file format", http.StatusBadRequest)
		return
	}

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeJSONError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(fileData)) > h.maxUploadBytes {
		h.writeJSONError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	h.submit(w, header.Filename, fileData)
}

func (h *Handler) submit(w http.ResponseWriter, filename string, data []byte) {
	jobID, err := h.service.Submit(filename, data)
	if err != nil {
		if errors.Is(err, processing.ErrInvalidFormat) {
			h.writeJSONError(w, "Invalid file format", http.StatusBadRequest)
			return
		}
		h.writeJSONError(w, "Failed to submit image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"image_id": jobID})
}
