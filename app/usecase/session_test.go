package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"iacgen/internal/domain/entity"
)

type fakeRetriever struct {
	result entity.RetrievalResult
	calls  int
}

func (f *fakeRetriever) Query(text string, topK int) entity.RetrievalResult {
	f.calls++
	return f.result
}

type fakeGenerator struct {
	outputs []string
	err     error
	prompts []string
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	return f.outputs[i], nil
}

type fakeValidator struct {
	outcomes []entity.ValidationOutcome
	calls    int
}

func (f *fakeValidator) Validate(ctx context.Context, code string) entity.ValidationOutcome {
	i := f.calls
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	f.calls++
	return f.outcomes[i]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func valid() entity.ValidationOutcome {
	return entity.ValidationOutcome{Status: entity.ValidationValid}
}

func invalid(msg string) entity.ValidationOutcome {
	return entity.ValidationOutcome{
		Status: entity.ValidationInvalid,
		Diagnostics: []entity.Diagnostic{
			{Severity: entity.SeverityError, Message: msg},
		},
	}
}

func unavailableOutcome() entity.ValidationOutcome {
	return entity.ValidationOutcome{
		Status: entity.ValidationToolUnavailable,
		Diagnostics: []entity.Diagnostic{
			{Severity: entity.SeverityWarning, Message: "terraform-based validation could not run"},
		},
	}
}

func newTestSession(cfg SessionConfig, r *fakeRetriever, g *fakeGenerator, v *fakeValidator) *GenerationSession {
	return NewGenerationSession("Create an S3 bucket", cfg, r, g, v, testLogger())
}

func TestSession_FirstAttemptValid(t *testing.T) {
	g := &fakeGenerator{outputs: []string{"```hcl\nresource \"aws_s3_bucket\" \"b\" {}\n```"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}
	s := newTestSession(SessionConfig{MaxRetries: 2}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionSucceeded, res.Status)
	require.Len(t, res.Attempts, 1)
	require.Equal(t, `resource "aws_s3_bucket" "b" {}`, res.Code)
	require.Equal(t, res.Code, res.Attempts[0].CandidateCode)
}

func TestSession_AlwaysInvalidExhaustsBudget(t *testing.T) {
	g := &fakeGenerator{outputs: []string{"attempt-1", "attempt-2", "attempt-3"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{invalid("still broken")}}
	s := newTestSession(SessionConfig{MaxRetries: 2}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionExhausted, res.Status)
	require.Len(t, res.Attempts, 3) // maxRetries+1, never more
	require.Equal(t, 3, v.calls)
	// best-effort output is the last attempt, never discarded
	require.Equal(t, "attempt-3", res.Code)
	require.Equal(t, res.LastAttempt().CandidateCode, res.Code)
	require.True(t, res.LastAttempt().Outcome.HasErrors())
}

func TestSession_RetryPromptCarriesDiagnostics(t *testing.T) {
	g := &fakeGenerator{outputs: []string{
		"resource \"aws_s3_bucket\" \"b\" {}",
		"resource \"aws_s3_bucket\" \"b\" { bucket = \"demo\" }",
	}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{
		invalid("missing bucket name"),
		valid(),
	}}
	s := newTestSession(SessionConfig{MaxRetries: 2}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionSucceeded, res.Status)
	require.Len(t, res.Attempts, 2)

	require.Len(t, g.prompts, 2)
	require.NotContains(t, g.prompts[0], "missing bucket name")
	require.Contains(t, g.prompts[1], "missing bucket name")
	require.Contains(t, g.prompts[1], res.Attempts[0].CandidateCode)
}

func TestSession_ModelFailureAbortsWithoutRetry(t *testing.T) {
	g := &fakeGenerator{err: &entity.ModelFailureError{Err: fmt.Errorf("timeout")}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}
	s := newTestSession(SessionConfig{MaxRetries: 3}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionAborted, res.Status)
	require.Equal(t, AbortReasonModelFailure, res.AbortReason)
	require.Empty(t, res.Attempts)
	require.Len(t, g.prompts, 1) // one call, no retry
	require.Zero(t, v.calls)
}

func TestSession_RetrievalRunsOnce(t *testing.T) {
	r := &fakeRetriever{}
	g := &fakeGenerator{outputs: []string{"x"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{invalid("nope")}}
	s := newTestSession(SessionConfig{MaxRetries: 4}, r, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionExhausted, res.Status)
	require.Len(t, res.Attempts, 5)
	require.Equal(t, 1, r.calls, "context must be cached across retries")
}

func TestSession_RetrievedSnippetsAppearInPrompt(t *testing.T) {
	r := &fakeRetriever{result: entity.RetrievalResult{
		Snippets: []entity.ScoredSnippet{
			{Snippet: &entity.Snippet{ID: "001", Title: "S3 example", Content: `resource "aws_s3_bucket" "ref" {}`}, Score: 0.9},
		},
	}}
	g := &fakeGenerator{outputs: []string{"x"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}
	s := newTestSession(SessionConfig{}, r, g, v)

	s.Run(context.Background())

	require.Contains(t, g.prompts[0], "S3 example")
	require.Contains(t, g.prompts[0], `resource "aws_s3_bucket" "ref" {}`)
}

func TestSession_ToolUnavailableConservative(t *testing.T) {
	g := &fakeGenerator{outputs: []string{"x"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{unavailableOutcome()}}
	s := newTestSession(SessionConfig{MaxRetries: 1}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	// without best-effort acceptance the outcome retries like invalid,
	// and the terminal attempt records that validation could not run
	require.Equal(t, entity.SessionExhausted, res.Status)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, entity.ValidationToolUnavailable, res.LastAttempt().Outcome.Status)
	require.NotEmpty(t, res.LastAttempt().Outcome.Diagnostics)
}

func TestSession_ToolUnavailableBestEffort(t *testing.T) {
	g := &fakeGenerator{outputs: []string{"resource \"aws_vpc\" \"v\" {}"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{unavailableOutcome()}}
	s := newTestSession(SessionConfig{MaxRetries: 1, BestEffortAcceptance: true}, &fakeRetriever{}, g, v)

	res := s.Run(context.Background())

	require.Equal(t, entity.SessionSucceeded, res.Status)
	require.Len(t, res.Attempts, 1)
	// the degraded-mode diagnostic is preserved, no false confidence
	require.NotEmpty(t, res.Attempts[0].Outcome.Diagnostics)
}

func TestSession_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &fakeGenerator{outputs: []string{"x"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{valid()}}
	s := newTestSession(SessionConfig{MaxRetries: 2}, &fakeRetriever{}, g, v)

	res := s.Run(ctx)

	require.Equal(t, entity.SessionAborted, res.Status)
	require.Equal(t, AbortReasonCanceled, res.AbortReason)
	require.Empty(t, res.Attempts)
	require.Empty(t, g.prompts)
}

func TestSession_ObserverSeesEveryAttempt(t *testing.T) {
	g := &fakeGenerator{outputs: []string{"a", "b"}}
	v := &fakeValidator{outcomes: []entity.ValidationOutcome{invalid("no"), valid()}}
	s := newTestSession(SessionConfig{MaxRetries: 2}, &fakeRetriever{}, g, v)

	var seen []int
	s.OnAttempt = func(att entity.GenerationAttempt) {
		seen = append(seen, att.Number)
	}

	s.Run(context.Background())
	require.Equal(t, []int{1, 2}, seen)
}
