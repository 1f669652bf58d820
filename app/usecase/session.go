package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"iacgen/internal/domain/entity"
	"iacgen/internal/domain/repository"
	"iacgen/internal/infrastructure/metrics"
)

const (
	AbortReasonModelFailure = "model_failure"
	AbortReasonCanceled     = "canceled"
)

// SessionConfig holds the recognized per-session options.
type SessionConfig struct {
	MaxRetries           int  // bound on re-generation attempts
	TopK                 int  // retrieval breadth
	SnippetBudget        int  // prompt budget for snippet content, chars
	BestEffortAcceptance bool // accept tool_unavailable when structural checks passed
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.TopK <= 0 {
		c.TopK = 3
	}
	return c
}

// GenerationSession owns the bounded generate-validate retry loop for one
// request. A session runs sequentially and is not safe for concurrent use;
// independent sessions share only the read-only knowledge base.
type GenerationSession struct {
	id      string
	request string
	cfg     SessionConfig

	retriever repository.SnippetRetriever
	generator repository.CodeGenerator
	validator repository.CodeValidator
	logger    *slog.Logger

	// OnAttempt, when set, observes every recorded attempt. Used to stream
	// progress to websocket subscribers.
	OnAttempt func(entity.GenerationAttempt)

	contextSet entity.RetrievalResult
	attempts   []entity.GenerationAttempt
}

func NewGenerationSession(
	request string,
	cfg SessionConfig,
	retriever repository.SnippetRetriever,
	generator repository.CodeGenerator,
	validator repository.CodeValidator,
	logger *slog.Logger,
) *GenerationSession {
	return &GenerationSession{
		id:        uuid.New().String(),
		request:   request,
		cfg:       cfg.withDefaults(),
		retriever: retriever,
		generator: generator,
		validator: validator,
		logger:    logger,
	}
}

func (s *GenerationSession) ID() string { return s.id }

// Run executes the retry loop to a terminal result. The result always
// carries either validated code or the last candidate plus the full
// diagnostic history; it is never a bare failure. Cancellation is checked
// at the start of each state transition, so an in-flight model or validator
// call completes but no further attempt starts.
func (s *GenerationSession) Run(ctx context.Context) *entity.SessionResult {
	start := time.Now()

	// Retrieval runs once per session; only the diagnostic-derived part of
	// the prompt changes between attempts.
	s.contextSet = s.retriever.Query(s.request, s.cfg.TopK)
	metrics.ObserveRetrievedSnippets(len(s.contextSet.Snippets))
	s.logger.Debug("context retrieved",
		"session_id", s.id, "snippets", len(s.contextSet.Snippets))

	maxAttempts := s.cfg.MaxRetries + 1
	var result *entity.SessionResult

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Drafting boundary
		if ctx.Err() != nil {
			result = s.terminal(entity.SessionAborted, "", AbortReasonCanceled)
			break
		}

		prompt := s.buildPrompt()
		startedAt := time.Now()

		raw, err := s.generator.Complete(ctx, prompt)
		if err != nil {
			// model failure aborts immediately, no retry budget consumed
			s.logger.Error("model invocation failed",
				"session_id", s.id, "attempt", attempt, "err", err)
			metrics.IncError("session", "model_failure")
			result = s.terminal(entity.SessionAborted, "", AbortReasonModelFailure)
			break
		}
		candidate := ExtractCode(raw)

		// Validating boundary
		if ctx.Err() != nil {
			s.record(entity.GenerationAttempt{
				Number:        attempt,
				Prompt:        prompt,
				CandidateCode: candidate,
				Outcome: entity.ValidationOutcome{
					Status: entity.ValidationToolUnavailable,
					Diagnostics: []entity.Diagnostic{{
						Severity: entity.SeverityWarning,
						Message:  "session canceled before validation",
					}},
				},
				StartedAt:  startedAt,
				FinishedAt: time.Now(),
			})
			result = s.terminal(entity.SessionAborted, candidate, AbortReasonCanceled)
			break
		}

		outcome := s.validator.Validate(ctx, candidate)
		s.record(entity.GenerationAttempt{
			Number:        attempt,
			Prompt:        prompt,
			CandidateCode: candidate,
			Outcome:       outcome,
			StartedAt:     startedAt,
			FinishedAt:    time.Now(),
		})

		if s.accepted(outcome) {
			s.logger.Info("candidate validated",
				"session_id", s.id, "attempt", attempt, "status", outcome.Status)
			result = s.terminal(entity.SessionSucceeded, candidate, "")
			break
		}

		s.logger.Info("candidate rejected",
			"session_id", s.id, "attempt", attempt,
			"status", outcome.Status, "diagnostics", len(outcome.Diagnostics))

		if attempt == maxAttempts {
			result = s.terminal(entity.SessionExhausted, candidate, "")
			break
		}
		// Retrying: loop back to Drafting with accumulated diagnostics
	}

	metrics.IncSessionResult(string(result.Status))
	metrics.ObserveSessionAttempts(len(result.Attempts))
	metrics.ObserveSessionDuration(time.Since(start))
	return result
}

// accepted reports whether an outcome terminates the session successfully.
// A tool_unavailable outcome counts only under best-effort acceptance; the
// structural checks already passed in that case, and the outcome keeps its
// degraded-mode diagnostic so the result never claims false confidence.
func (s *GenerationSession) accepted(outcome entity.ValidationOutcome) bool {
	switch outcome.Status {
	case entity.ValidationValid:
		return true
	case entity.ValidationToolUnavailable:
		return s.cfg.BestEffortAcceptance
	default:
		return false
	}
}

func (s *GenerationSession) buildPrompt() string {
	pc := PromptContext{
		System:        entity.TerraformPrompt,
		Request:       s.request,
		Snippets:      s.contextSet.Snippets,
		SnippetBudget: s.cfg.SnippetBudget,
	}
	if last := len(s.attempts); last > 0 {
		prev := s.attempts[last-1]
		pc.PreviousCode = prev.CandidateCode
		pc.Diagnostics = prev.Outcome.Diagnostics
	}
	return pc.Render()
}

// record appends to the session history. History is append-only and never
// rewritten, so a whole session stays replayable for audit.
func (s *GenerationSession) record(att entity.GenerationAttempt) {
	s.attempts = append(s.attempts, att)
	if s.OnAttempt != nil {
		s.OnAttempt(att)
	}
}

func (s *GenerationSession) terminal(status entity.SessionStatus, code, reason string) *entity.SessionResult {
	return &entity.SessionResult{
		SessionID:   s.id,
		Status:      status,
		Code:        code,
		Attempts:    s.attempts,
		AbortReason: reason,
		FinishedAt:  time.Now(),
	}
}
