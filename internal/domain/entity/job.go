package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusExhausted JobStatus = "exhausted"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Job is one queued generation request. The background worker picks pending
// jobs and runs a generation session for each.
type Job struct {
	ID          string    `json:"id" bson:"id"`
	Description string    `json:"description" bson:"description"`
	Status      JobStatus `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func NewJob(description string) *Job {
	return &Job{
		ID:          uuid.New().String(),
		Description: description,
		Status:      JobStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (j *Job) UpdateStatus(status JobStatus) {
	j.Status = status
	j.UpdatedAt = time.Now()
}

func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusExhausted, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// StatusForSession maps a terminal session status onto the job state machine.
func StatusForSession(s SessionStatus) JobStatus {
	switch s {
	case SessionSucceeded:
		return JobStatusSucceeded
	case SessionExhausted:
		return JobStatusExhausted
	default:
		return JobStatusFailed
	}
}
