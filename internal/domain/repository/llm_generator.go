package repository

import (
	"context"
)

// CodeGenerator интерфейс для генерации конфигураций через LLM.
type CodeGenerator interface {
	// Complete sends a single assembled prompt to the model and returns the
	// raw completion text. Transport, timeout and quota failures are wrapped
	// as entity.ModelFailureError.
	Complete(ctx context.Context, prompt string) (string, error)
}
