package entity

import "time"

// GenerationAttempt records one generate-then-validate cycle. Attempts are
// immutable once recorded; a session only appends to its history.
type GenerationAttempt struct {
	Number        int               `json:"number" bson:"number"` // 1-based
	Prompt        string            `json:"prompt" bson:"prompt"`
	CandidateCode string            `json:"candidate_code" bson:"candidate_code"`
	Outcome       ValidationOutcome `json:"outcome" bson:"outcome"`
	StartedAt     time.Time         `json:"started_at" bson:"started_at"`
	FinishedAt    time.Time         `json:"finished_at" bson:"finished_at"`
}

type SessionStatus string

const (
	SessionSucceeded SessionStatus = "succeeded"
	SessionExhausted SessionStatus = "exhausted"
	SessionAborted   SessionStatus = "aborted"
)

// SessionResult is the terminal outcome of a generation session. It always
// carries the last candidate produced together with the full attempt history,
// so callers can inspect best-effort output alongside its diagnostics.
type SessionResult struct {
	SessionID   string              `json:"session_id" bson:"session_id"`
	JobID       string              `json:"job_id,omitempty" bson:"job_id,omitempty"`
	Status      SessionStatus       `json:"status" bson:"status"`
	Code        string              `json:"code" bson:"code"`
	Attempts    []GenerationAttempt `json:"attempts" bson:"attempts"`
	AbortReason string              `json:"abort_reason,omitempty" bson:"abort_reason,omitempty"`
	FinishedAt  time.Time           `json:"finished_at" bson:"finished_at"`
}

// LastAttempt returns the most recent recorded attempt, or nil when the
// session aborted before completing one.
func (r *SessionResult) LastAttempt() *GenerationAttempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}
