package registry

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelcourt/pixelcourt/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newJob(id string, state models.JobState) *models.Job {
	return &models.Job{
		ID:              id,
		State:           state,
		RoundsPerFactor: 2,
		CreatedAt:       time.Now(),
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	reg := New(time.Hour, testLogger())

	reg.Create(newJob("job-1", models.JobStatePending))

	job, err := reg.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.JobStatePending, job.State)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := New(time.Hour, testLogger())

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRegistry_Get_ReturnsSnapshot(t *testing.T) {
	reg := New(time.Hour, testLogger())
	reg.Create(newJob("job-1", models.JobStatePending))

	job, err := reg.Get("job-1")
	require.NoError(t, err)
	job.State = models.JobStateFailed

	stored, err := reg.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatePending, stored.State)
}

func TestRegistry_Update(t *testing.T) {
	reg := New(time.Hour, testLogger())
	reg.Create(newJob("job-1", models.JobStatePending))

	err := reg.Update("job-1", func(j *models.Job) {
		j.State = models.JobStateDebating
	})
	require.NoError(t, err)

	job, err := reg.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStateDebating, job.State)
}

func TestRegistry_Update_NotFound(t *testing.T) {
	reg := New(time.Hour, testLogger())

	err := reg.Update("missing", func(j *models.Job) {
		j.State = models.JobStateFailed
	})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRegistry_Sweep_EvictsExpiredTerminal(t *testing.T) {
	reg := New(time.Hour, testLogger())

	old := time.Now().Add(-2 * time.Hour)
	done := newJob("job-done", models.JobStateComplete)
	done.CompletedAt = &old
	failed := newJob("job-failed", models.JobStateFailed)
	failed.CompletedAt = &old
	reg.Create(done)
	reg.Create(failed)

	evicted := reg.Sweep(time.Now())
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Sweep_KeepsActiveAndFresh(t *testing.T) {
	reg := New(time.Hour, testLogger())

	reg.Create(newJob("job-active", models.JobStateDebating))

	now := time.Now()
	fresh := newJob("job-fresh", models.JobStateComplete)
	fresh.CompletedAt = &now
	reg.Create(fresh)

	evicted := reg.Sweep(now)
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 2, reg.Len())

	_, err := reg.Get("job-active")
	assert.NoError(t, err)
	_, err = reg.Get("job-fresh")
	assert.NoError(t, err)
}
