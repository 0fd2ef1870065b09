// Package registry is the process-wide job store. Each job has a single
// writer (its orchestrator run); reads return snapshots so status queries
// never observe a half-applied update.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/models"
)

// ErrJobNotFound is returned for unknown or already-evicted job IDs.
var ErrJobNotFound = errors.New("job not found")

// Registry stores jobs keyed by ID. Terminal jobs are evicted after a TTL so
// the map does not grow for the process lifetime.
type Registry struct {
	jobs   map[string]*models.Job
	mu     sync.RWMutex
	ttl    time.Duration
	logger *logrus.Logger
}

// New creates a registry. terminalTTL bounds how long completed or failed
// jobs remain queryable; zero disables eviction.
func New(terminalTTL time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*models.Job),
		ttl:    terminalTTL,
		logger: logger,
	}
}

// Create registers a new job.
func (r *Registry) Create(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// Get returns a snapshot of the job. The snapshot's slices and result are
// shared with the live job but are never mutated after being set, so the
// copy is safe to hand out.
func (r *Registry) Get(id string) (models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Update applies fn to the job under the registry lock. Only the owning
// orchestrator run may call this for a given job.
func (r *Registry) Update(id string, fn func(*models.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

// Len returns the number of stored jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Sweep evicts terminal jobs whose completion time is older than the TTL.
// It returns the number of evicted jobs.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, job := range r.jobs {
		if !job.IsDone() || job.CompletedAt == nil {
			continue
		}
		if now.Sub(*job.CompletedAt) >= r.ttl {
			delete(r.jobs, id)
			evicted++
		}
	}

	if evicted > 0 {
		r.logger.WithFields(logrus.Fields{
			"evicted":   evicted,
			"remaining": len(r.jobs),
		}).Info("Swept terminal jobs")
	}
	return evicted
}

// RunSweeper sweeps on the given interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
