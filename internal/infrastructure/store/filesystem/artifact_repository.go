package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"iacgen/internal/domain/entity"
)

// ArtifactRepository writes finished session results to disk: the final
// candidate as main.tf plus a metadata.json with the attempt history, one
// directory per job.
type ArtifactRepository struct {
	basePath string
}

func (r *ArtifactRepository) GetBasePath() string {
	return r.basePath
}

func NewArtifactRepository(basePath string) (*ArtifactRepository, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &ArtifactRepository{
		basePath: basePath,
	}, nil
}

func (r *ArtifactRepository) SaveResult(ctx context.Context, result *entity.SessionResult) error {
	if result.JobID == "" {
		return fmt.Errorf("job id is required")
	}

	jobDir := filepath.Join(r.basePath, result.JobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	if result.Code != "" {
		if err := os.WriteFile(filepath.Join(jobDir, "main.tf"), []byte(result.Code), 0644); err != nil {
			return fmt.Errorf("failed to write main.tf: %w", err)
		}
	}

	metadata := map[string]interface{}{
		"job_id":     result.JobID,
		"session_id": result.SessionID,
		"status":     result.Status,
		"written_at": time.Now(),
		"attempts":   result.Attempts,
	}
	if result.AbortReason != "" {
		metadata["abort_reason"] = result.AbortReason
	}

	metadataData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "metadata.json"), metadataData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// GetCode reads back the stored candidate config for a job.
func (r *ArtifactRepository) GetCode(ctx context.Context, jobID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.basePath, jobID, "main.tf"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("artifacts not found for job %s", jobID)
		}
		return "", fmt.Errorf("failed to read main.tf: %w", err)
	}
	return string(data), nil
}

func (r *ArtifactRepository) ListJobs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}

	var jobs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.basePath, e.Name(), "metadata.json")); err == nil {
			jobs = append(jobs, e.Name())
		}
	}
	return jobs, nil
}

func (r *ArtifactRepository) DeleteJob(ctx context.Context, jobID string) error {
	if err := os.RemoveAll(filepath.Join(r.basePath, jobID)); err != nil {
		return fmt.Errorf("failed to delete job directory: %w", err)
	}
	return nil
}
