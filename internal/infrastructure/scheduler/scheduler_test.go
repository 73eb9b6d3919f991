package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	panic bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return j.err
}

func TestIntervalSchedule(t *testing.T) {
	s := Every(30 * time.Second)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(30*time.Second), s.Next(base))
	assert.Equal(t, "@every 30s", s.String())
}

func TestScheduler_RunsDueJobsPeriodically(t *testing.T) {
	s := NewScheduler(SchedulerConfig{TickInterval: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "tick", infos[0].Name)
	assert.GreaterOrEqual(t, infos[0].RunCount, int64(2))
	assert.Zero(t, infos[0].FailCount)
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Minute)))

	err := s.Register(&countingJob{name: "a"}, Every(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RunNowRecordsFailuresAndPanics(t *testing.T) {
	errWarm := errors.New("store down")

	var results []JobResult
	s := NewScheduler(SchedulerConfig{OnJobComplete: func(r JobResult) { results = append(results, r) }})
	require.NoError(t, s.Register(&countingJob{name: "failing", err: errWarm}, Every(time.Hour)))
	require.NoError(t, s.Register(&countingJob{name: "panicking", panic: true}, Every(time.Hour)))

	_, err := s.RunNow(context.Background(), "failing")
	assert.ErrorIs(t, err, errWarm)

	_, err = s.RunNow(context.Background(), "panicking")
	assert.ErrorIs(t, err, ErrJobPanicked)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	require.Len(t, results, 2)
	infos := s.ListJobs()
	require.Len(t, infos, 2)
	assert.Equal(t, "failing", infos[0].Name)
	assert.Equal(t, int64(1), infos[0].FailCount)
	assert.Equal(t, "store down", infos[0].LastError)
	assert.Equal(t, "panicking", infos[1].Name)
	assert.Equal(t, int64(1), infos[1].FailCount)
}
