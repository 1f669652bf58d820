package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iacgen/internal/domain/entity"
)

func sampleResult(jobID string) *entity.SessionResult {
	return &entity.SessionResult{
		SessionID: "sess-1",
		JobID:     jobID,
		Status:    entity.SessionSucceeded,
		Code:      "resource \"aws_s3_bucket\" \"b\" {}\n",
		Attempts: []entity.GenerationAttempt{
			{
				Number:        1,
				CandidateCode: "resource \"aws_s3_bucket\" \"b\" {}\n",
				Outcome:       entity.ValidationOutcome{Status: entity.ValidationValid},
				StartedAt:     time.Now(),
				FinishedAt:    time.Now(),
			},
		},
		FinishedAt: time.Now(),
	}
}

func TestArtifactRepository_SaveResult(t *testing.T) {
	repo, err := NewArtifactRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.SaveResult(context.Background(), sampleResult("job-1")))

	code, err := repo.GetCode(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Contains(t, code, "aws_s3_bucket")

	data, err := os.ReadFile(filepath.Join(repo.GetBasePath(), "job-1", "metadata.json"))
	require.NoError(t, err)

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &metadata))
	assert.Equal(t, "job-1", metadata["job_id"])
	assert.Equal(t, string(entity.SessionSucceeded), metadata["status"])
	assert.Len(t, metadata["attempts"], 1)
}

func TestArtifactRepository_NoCodeStillWritesMetadata(t *testing.T) {
	repo, err := NewArtifactRepository(t.TempDir())
	require.NoError(t, err)

	result := sampleResult("job-2")
	result.Status = entity.SessionAborted
	result.AbortReason = "model_failure"
	result.Code = ""
	result.Attempts = nil
	require.NoError(t, repo.SaveResult(context.Background(), result))

	_, err = repo.GetCode(context.Background(), "job-2")
	assert.Error(t, err)

	jobs, err := repo.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"job-2"}, jobs)
}

func TestArtifactRepository_DeleteJob(t *testing.T) {
	repo, err := NewArtifactRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.SaveResult(context.Background(), sampleResult("job-3")))
	require.NoError(t, repo.DeleteJob(context.Background(), "job-3"))

	jobs, err := repo.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
