package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"iacgen/internal/domain/entity"
)

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*entity.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*entity.Job)}
}

func (r *memJobRepo) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *memJobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id], nil
}

func (r *memJobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Job
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (r *memJobRepo) ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Job
	for _, j := range r.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *memJobRepo) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].UpdateStatus(status)
	return nil
}

func (r *memJobRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

func (r *memJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	jobs, _ := r.ListByStatus(ctx, status)
	return len(jobs), nil
}

type memSessionRepo struct {
	mu      sync.Mutex
	results map[string]*entity.SessionResult
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{results: make(map[string]*entity.SessionResult)}
}

func (r *memSessionRepo) Save(ctx context.Context, result *entity.SessionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.JobID] = result
	return nil
}

func (r *memSessionRepo) GetByJobID(ctx context.Context, jobID string) (*entity.SessionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[jobID], nil
}

func (r *memSessionRepo) DeleteByJobID(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, jobID)
	return nil
}

func TestWorker_ProcessJobSuccess(t *testing.T) {
	jobs := newMemJobRepo()
	sessions := newMemSessionRepo()
	job := entity.NewJob("Create an S3 bucket")
	require.NoError(t, jobs.Create(context.Background(), job))

	g := &fakeGenerator{outputs: []string{"resource \"aws_s3_bucket\" \"b\" { bucket = \"x\" }"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}

	w := NewGeneratorWorker(jobs, sessions, nil, &fakeRetriever{}, g, v, nil,
		SessionConfig{MaxRetries: 2}, testLogger())

	require.NoError(t, w.runOnce(context.Background()))

	got, _ := jobs.GetByID(context.Background(), job.ID)
	require.Equal(t, entity.JobStatusSucceeded, got.Status)

	res, err := sessions.GetByJobID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, entity.SessionSucceeded, res.Status)
	require.Equal(t, job.ID, res.JobID)
	require.Len(t, res.Attempts, 1)
}

func TestWorker_ProcessJobExhausted(t *testing.T) {
	jobs := newMemJobRepo()
	sessions := newMemSessionRepo()
	job := entity.NewJob("Create an S3 bucket")
	require.NoError(t, jobs.Create(context.Background(), job))

	g := &fakeGenerator{outputs: []string{"broken"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{invalid("no resource blocks")}}

	w := NewGeneratorWorker(jobs, sessions, nil, &fakeRetriever{}, g, v, nil,
		SessionConfig{MaxRetries: 1}, testLogger())

	require.NoError(t, w.runOnce(context.Background()))

	got, _ := jobs.GetByID(context.Background(), job.ID)
	require.Equal(t, entity.JobStatusExhausted, got.Status)

	res, _ := sessions.GetByJobID(context.Background(), job.ID)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, "broken", res.Code)
}

func TestWorker_ModelFailureMarksJobFailed(t *testing.T) {
	jobs := newMemJobRepo()
	sessions := newMemSessionRepo()
	job := entity.NewJob("Create an S3 bucket")
	require.NoError(t, jobs.Create(context.Background(), job))

	g := &fakeGenerator{err: &entity.ModelFailureError{Err: context.DeadlineExceeded}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}

	w := NewGeneratorWorker(jobs, sessions, nil, &fakeRetriever{}, g, v, nil,
		SessionConfig{}, testLogger())

	require.NoError(t, w.runOnce(context.Background()))

	got, _ := jobs.GetByID(context.Background(), job.ID)
	require.Equal(t, entity.JobStatusFailed, got.Status)

	res, _ := sessions.GetByJobID(context.Background(), job.ID)
	require.Equal(t, entity.SessionAborted, res.Status)
	require.Equal(t, AbortReasonModelFailure, res.AbortReason)
	require.Empty(t, res.Attempts)
}
