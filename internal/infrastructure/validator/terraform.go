package validator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"iacgen/internal/domain/entity"
	"iacgen/internal/infrastructure/metrics"
)

const defaultTimeout = 60 * time.Second

// TerraformValidator validates candidate configs with the terraform CLI.
// Structural pre-checks run first; only candidates that pass them cost a
// subprocess invocation. Every invocation gets its own scoped temp working
// directory, cleaned up on all exit paths.
type TerraformValidator struct {
	binPath string
	timeout time.Duration
	workDir string // parent for per-invocation temp dirs, "" = system default
	logger  *slog.Logger
}

func NewTerraformValidator(binPath string, timeout time.Duration, logger *slog.Logger) *TerraformValidator {
	if binPath == "" {
		binPath = "terraform"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TerraformValidator{
		binPath: binPath,
		timeout: timeout,
		logger:  logger,
	}
}

func (v *TerraformValidator) Name() string { return "terraform" }

func (v *TerraformValidator) Validate(ctx context.Context, candidateCode string) entity.ValidationOutcome {
	start := time.Now()
	defer func() {
		metrics.ObserveValidationDuration("terraform", time.Since(start))
	}()

	if diags := CheckStructure(candidateCode); hasErrors(diags) {
		metrics.IncValidationRun("structural", "fail")
		return entity.ValidationOutcome{Status: entity.ValidationInvalid, Diagnostics: diags}
	}
	metrics.IncValidationRun("structural", "pass")

	outcome, err := v.runTool(ctx, candidateCode)
	if err != nil {
		// degraded mode: the retry controller decides what to do
		metrics.IncValidationRun("terraform", "error")
		v.logger.Warn("terraform validation unavailable", "err", err)
		return entity.ValidationOutcome{
			Status: entity.ValidationToolUnavailable,
			Diagnostics: []entity.Diagnostic{{
				Severity: entity.SeverityWarning,
				Message:  "terraform-based validation could not run: " + err.Error(),
			}},
		}
	}

	if outcome.Status == entity.ValidationValid {
		metrics.IncValidationRun("terraform", "pass")
	} else {
		metrics.IncValidationRun("terraform", "fail")
	}
	return outcome
}

func (v *TerraformValidator) runTool(ctx context.Context, candidateCode string) (entity.ValidationOutcome, error) {
	dir, err := os.MkdirTemp(v.workDir, "tf_validate_")
	if err != nil {
		return entity.ValidationOutcome{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			v.logger.Warn("cleanup validation dir failed", "dir", dir, "err", rmErr)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, "main.tf"), []byte(candidateCode), 0644); err != nil {
		return entity.ValidationOutcome{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	initOut, initErr, err := v.runCmd(runCtx, dir, "init", "-backend=false", "-input=false", "-no-color")
	if unavailable(runCtx, err) {
		return entity.ValidationOutcome{}, entity.ErrToolUnavailable
	}
	if err != nil {
		diags := ParseToolOutput(initOut, initErr)
		if len(diags) == 0 {
			diags = []entity.Diagnostic{{
				Severity: entity.SeverityError,
				Message:  "terraform init failed: " + err.Error(),
			}}
		}
		return entity.ValidationOutcome{Status: entity.ValidationInvalid, Diagnostics: diags}, nil
	}

	valOut, valErr, err := v.runCmd(runCtx, dir, "validate", "-no-color")
	if unavailable(runCtx, err) {
		return entity.ValidationOutcome{}, entity.ErrToolUnavailable
	}

	diags := ParseToolOutput(valOut, valErr)
	outcome := entity.ValidationOutcome{Status: entity.ValidationValid, Diagnostics: diags}
	if err != nil || outcome.HasErrors() {
		outcome.Status = entity.ValidationInvalid
		if err != nil && !outcome.HasErrors() {
			outcome.Diagnostics = append(outcome.Diagnostics, entity.Diagnostic{
				Severity: entity.SeverityError,
				Message:  "terraform validate failed: " + err.Error(),
			})
		}
	}
	return outcome, nil
}

func (v *TerraformValidator) runCmd(ctx context.Context, dir string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, v.binPath, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// unavailable reports whether the failure means the tool itself could not
// run (missing binary or timeout) rather than rejecting the config.
func unavailable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	return errors.Is(err, exec.ErrNotFound)
}
