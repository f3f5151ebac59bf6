package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/entropymap/internal/models"
)

type statusResponse struct {
	Status            models.JobStatus `json:"status"`
	EntropyAvg        *float64         `json:"entropy_avg,omitempty"`
	ArtifactAvailable *bool            `json:"artifact_available,omitempty"`
	Error             string           `json:"error,omitempty"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/status/")

	job := h.service.Status(jobID)
	resp := statusResponse{Status: job.Status, Error: job.Error}
	if job.Status == models.StatusDone {
		avg := job.EntropyAvg
		_, err := h.service.Artifact(jobID)
		available := err == nil
		resp.EntropyAvg = &avg
		resp.ArtifactAvailable = &available
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/download/")

	path, err := h.service.Artifact(jobID)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (h *Handler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/getavg/")

	avg, err := h.service.Summary(jobID)
	if err != nil {
		h.writeJSONError(w, "Entropy average not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]float64{"entropy_avg": avg})
}
