package repository

import (
	"context"

	"iacgen/internal/domain/entity"
)

// CodeValidator интерфейс для валидации сгенерированных конфигураций.
type CodeValidator interface {
	// Validate checks one candidate configuration and returns a typed
	// outcome. It never fails the caller for diagnosable problems: syntax
	// and semantic findings come back as diagnostics, and an unreachable
	// external tool is reported as ValidationToolUnavailable.
	Validate(ctx context.Context, candidateCode string) entity.ValidationOutcome
}
