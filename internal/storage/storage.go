package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/entropymap/internal/models"
)

var (
	ErrUnknownJob        = errors.New("unknown job")
	ErrDuplicateJob      = errors.New("job already exists")
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// JobStore is the in-memory job registry. Records are only ever replaced whole
// under the write lock, and readers get copies.
type JobStore struct {
	jobs map[string]*models.Job
	mu   sync.RWMutex
	now  func() time.Time
}

func New() *JobStore {
	return &JobStore{
		jobs: make(map[string]*models.Job),
		now:  time.Now,
	}
}

// Create registers a new job in the processing state.
func (s *JobStore) Create(jobID, sourcePath string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[jobID]; exists {
		return models.Job{}, fmt.Errorf("%w: %s", ErrDuplicateJob, jobID)
	}
	job := &models.Job{
		ID:         jobID,
		Status:     models.StatusProcessing,
		SourcePath: sourcePath,
		CreatedAt:  s.now(),
	}
	s.jobs[jobID] = job
	return *job, nil
}

// Complete moves a processing job to done with its artifact and mean entropy.
func (s *JobStore) Complete(jobID, artifactPath string, entropyAvg float64) error {
	return s.finish(jobID, func(job *models.Job) {
		job.Status = models.StatusDone
		job.ArtifactPath = artifactPath
		job.EntropyAvg = entropyAvg
	})
}

// Fail moves a processing job to failed, recording the reason.
func (s *JobStore) Fail(jobID string, reason error) error {
	return s.finish(jobID, func(job *models.Job) {
		job.Status = models.StatusFailed
		if reason != nil {
			job.Error = reason.Error()
		}
	})
}

func (s *JobStore) finish(jobID string, apply func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	if current.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, jobID, current.Status)
	}
	next := *current
	apply(&next)
	next.FinishedAt = s.now()
	s.jobs[jobID] = &next
	return nil
}

// Get returns a copy of the job record.
func (s *JobStore) Get(jobID string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return models.Job{}, false
	}
	return *job, true
}

// Status returns the job state, or StatusUnknown for an unrecognized id.
func (s *JobStore) Status(jobID string) models.JobStatus {
	job, exists := s.Get(jobID)
	if !exists {
		return models.StatusUnknown
	}
	return job.Status
}

// Artifact returns the artifact path of a done job.
func (s *JobStore) Artifact(jobID string) (string, bool) {
	job, exists := s.Get(jobID)
	if !exists || job.Status != models.StatusDone {
		return "", false
	}
	return job.ArtifactPath, true
}

// Summary returns the mean entropy of a done job.
func (s *JobStore) Summary(jobID string) (float64, bool) {
	job, exists := s.Get(jobID)
	if !exists || job.Status != models.StatusDone {
		return 0, false
	}
	return job.EntropyAvg, true
}

func (s *JobStore) GetAll() map[string]models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.Job, len(s.jobs))
	for k, v := range s.jobs {
		result[k] = *v
	}
	return result
}
