package usecase

import (
	"context"
	"fmt"

	"iacgen/internal/domain/entity"
	"iacgen/internal/domain/repository"
	"iacgen/internal/infrastructure/metrics"
)

type JobUsecase interface {
	CreateJob(ctx context.Context, description string) (*entity.Job, error)
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]*entity.Job, error)
	GetResult(ctx context.Context, jobID string) (*entity.SessionResult, error)
	DeleteJob(ctx context.Context, jobID string) error
}

var _ JobUsecase = (*JobService)(nil)

type JobService struct {
	jobsRepo    repository.JobRepository
	sessionRepo repository.SessionRepository
}

func NewJobService(
	jr repository.JobRepository,
	sr repository.SessionRepository,
) *JobService {
	return &JobService{
		jobsRepo:    jr,
		sessionRepo: sr,
	}
}

func (u *JobService) CreateJob(ctx context.Context, description string) (*entity.Job, error) {
	job := entity.NewJob(description)

	if err := u.jobsRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.IncJobsCreated()

	return job, nil
}

func (u *JobService) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	job, err := u.jobsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", id, entity.ErrJobNotFound)
	}
	return job, nil
}

func (u *JobService) ListJobs(ctx context.Context) ([]*entity.Job, error) {
	return u.jobsRepo.List(ctx)
}

// GetResult returns the stored session result for a finished job: validated
// code after success, or the best-effort candidate with its full attempt
// history otherwise.
func (u *JobService) GetResult(ctx context.Context, jobID string) (*entity.SessionResult, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID is required")
	}
	result, err := u.sessionRepo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get result for job %s: %w", jobID, err)
	}
	if result == nil {
		return nil, fmt.Errorf("result for job %s: %w", jobID, entity.ErrJobNotFound)
	}
	return result, nil
}

func (u *JobService) DeleteJob(ctx context.Context, jobID string) error {
	if err := u.sessionRepo.DeleteByJobID(ctx, jobID); err != nil {
		return fmt.Errorf("delete session result: %w", err)
	}
	if err := u.jobsRepo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}
