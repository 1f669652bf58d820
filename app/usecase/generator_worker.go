package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"iacgen/internal/domain/entity"
	"iacgen/internal/domain/repository"
	"iacgen/internal/infrastructure/metrics"
)

// AttemptPublisher receives attempt-progress events for one job, e.g. to
// fan them out to websocket subscribers.
type AttemptPublisher interface {
	PublishAttempt(jobID string, att entity.GenerationAttempt)
}

// ArtifactWriter persists the final candidate code and attempt metadata of
// a finished session to disk.
type ArtifactWriter interface {
	SaveResult(ctx context.Context, result *entity.SessionResult) error
}

// GeneratorWorker is the background service that turns pending jobs into
// generation sessions. One session per job, sessions sequential within the
// worker; the shared knowledge base is read-only so concurrent deployments
// of the worker are safe.
type GeneratorWorker struct {
	jobsRepo    repository.JobRepository
	sessionRepo repository.SessionRepository
	artifacts   ArtifactWriter

	retriever repository.SnippetRetriever
	generator repository.CodeGenerator
	validator repository.CodeValidator
	events    AttemptPublisher

	sessionCfg SessionConfig
	logger     *slog.Logger

	pollInterval   time.Duration
	sessionTimeout time.Duration

	// control
	stop    chan struct{}
	stopped chan struct{}
}

func NewGeneratorWorker(
	jr repository.JobRepository,
	sr repository.SessionRepository,
	artifacts ArtifactWriter,
	retriever repository.SnippetRetriever,
	generator repository.CodeGenerator,
	validator repository.CodeValidator,
	events AttemptPublisher,
	sessionCfg SessionConfig,
	logger *slog.Logger,
) *GeneratorWorker {
	return &GeneratorWorker{
		jobsRepo:       jr,
		sessionRepo:    sr,
		artifacts:      artifacts,
		retriever:      retriever,
		generator:      generator,
		validator:      validator,
		events:         events,
		sessionCfg:     sessionCfg,
		logger:         logger,
		pollInterval:   5 * time.Second,
		sessionTimeout: 15 * time.Minute,
		stop:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
}

func (w *GeneratorWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		w.logger.Info("GeneratorWorker started", "interval", w.pollInterval)

		if err := w.runOnce(ctx); err != nil {
			w.logger.Warn("initial runOnce failed", "err", err)
		}

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("GeneratorWorker context canceled")
				return
			case <-w.stop:
				w.logger.Info("GeneratorWorker stopped by Stop()")
				return
			case <-ticker.C:
				if err := w.runOnce(ctx); err != nil {
					w.logger.Warn("runOnce failed", "err", err)
				}
			}
		}
	}()
}

func (w *GeneratorWorker) Stop() {
	close(w.stop)
	<-w.stopped
	w.logger.Info("GeneratorWorker fully stopped")
}

func (w *GeneratorWorker) runOnce(ctx context.Context) error {
	jobs, err := w.jobsRepo.ListByStatus(ctx, entity.JobStatusPending)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	w.logger.Debug("found pending jobs", "count", len(jobs))
	metrics.SetActiveJobs(len(jobs))

	for _, job := range jobs {
		if err := w.transition(ctx, job.ID, entity.JobStatusPending, entity.JobStatusRunning); err != nil {
			w.logger.Warn("failed to set job running; skip", "job_id", job.ID, "err", err)
			continue
		}

		procCtx, cancel := context.WithTimeout(ctx, w.sessionTimeout)
		func() {
			defer cancel()
			if err := w.processJob(procCtx, job); err != nil {
				w.logger.Error("processJob failed", "job_id", job.ID, "err", err)
			}
		}()
	}

	return nil
}

// processJob runs the full pipeline for one job:
// 1) generation session (retrieve, draft, validate, retry)
// 2) persist session result with attempt history
// 3) write artifacts to disk
// 4) set the terminal job status
func (w *GeneratorWorker) processJob(ctx context.Context, job *entity.Job) error {
	startTime := time.Now()
	w.logger.Info("start processing job", "job_id", job.ID)

	session := NewGenerationSession(
		job.Description,
		w.sessionCfg,
		w.retriever,
		w.generator,
		w.validator,
		w.logger,
	)
	if w.events != nil {
		session.OnAttempt = func(att entity.GenerationAttempt) {
			w.events.PublishAttempt(job.ID, att)
		}
	}

	result := session.Run(ctx)
	result.JobID = job.ID

	// persistence failures must not lose the terminal status transition,
	// so they are logged rather than returned early
	if err := w.sessionRepo.Save(ctx, result); err != nil {
		metrics.IncError("worker", "save_result")
		w.logger.Error("save session result failed", "job_id", job.ID, "err", err)
	}
	if w.artifacts != nil {
		if err := w.artifacts.SaveResult(ctx, result); err != nil {
			w.logger.Error("save artifacts failed", "job_id", job.ID, "err", err)
		}
	}

	terminal := entity.StatusForSession(result.Status)
	if err := w.transition(ctx, job.ID, entity.JobStatusRunning, terminal); err != nil {
		w.logger.Warn("failed to set terminal job status",
			"job_id", job.ID, "status", terminal, "err", err)
	}

	w.logger.Info("job processed",
		"job_id", job.ID,
		"status", terminal,
		"attempts", len(result.Attempts),
		"duration", time.Since(startTime))
	return nil
}

func (w *GeneratorWorker) transition(ctx context.Context, jobID string, from, to entity.JobStatus) error {
	if err := w.jobsRepo.UpdateStatus(ctx, jobID, to); err != nil {
		return err
	}
	metrics.IncJobStatusChange(string(from), string(to))
	return nil
}
