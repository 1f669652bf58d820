package repository

import (
	"context"

	"iacgen/internal/domain/entity"
)

// SessionRepository stores terminal session results together with their full
// attempt history. History is append-only: a stored result is never
// rewritten, so whole sessions stay replayable for audit.
type SessionRepository interface {
	Save(ctx context.Context, result *entity.SessionResult) error
	GetByJobID(ctx context.Context, jobID string) (*entity.SessionResult, error)
	DeleteByJobID(ctx context.Context, jobID string) error
}
