package models

import "time"

// JobStatus is the lifecycle state of a transformation job
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
	StatusUnknown    JobStatus = "unknown"
)

// Job represents one submitted entropy transformation
type Job struct {
	ID           string    `json:"id"`
	Status       JobStatus `json:"status"`
	SourcePath   string    `json:"source_path,omitempty"`
	ArtifactPath string    `json:"path,omitempty"`
	EntropyAvg   float64   `json:"entropy_avg,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

// Terminal reports whether the job will never change state again
func (j Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}
