// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// TrainJob asks a worker to fit a capacity-tuned model for one player.
type TrainJob struct {
	JobID       string    // unique id, also the idempotency key while the job is in flight
	Player      string    // player whose shots train the model
	RequestedAt time.Time // when the request was accepted
}

// NewTrainJob stamps a job for player with a fresh id.
func NewTrainJob(player string, now time.Time) TrainJob {
	return TrainJob{
		JobID:       uuid.NewString(),
		Player:      player,
		RequestedAt: now,
	}
}

// JobState is the lifecycle stage of a training job.
type JobState string

// Job states.
const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// JobStatus is the externally visible view of a job.
type JobStatus struct {
	JobID       string    `json:"job_id"`
	Player      string    `json:"player"`
	State       JobState  `json:"state"`
	Error       string    `json:"error,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	Accuracy    float64   `json:"accuracy,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

// Queued returns the initial status for job.
func Queued(job TrainJob) JobStatus {
	return JobStatus{
		JobID:       job.JobID,
		Player:      job.Player,
		State:       JobQueued,
		RequestedAt: job.RequestedAt,
	}
}

// Start marks the status as running.
func (s JobStatus) Start(now time.Time) JobStatus {
	s.State = JobRunning
	s.StartedAt = now
	return s
}

// Finish marks the status done with the trained capacity and accuracy.
func (s JobStatus) Finish(now time.Time, capacity int, accuracy float64) JobStatus {
	s.State = JobDone
	s.FinishedAt = now
	s.Capacity = capacity
	s.Accuracy = accuracy
	s.Error = ""
	return s
}

// Fail marks the status failed with err's message.
func (s JobStatus) Fail(now time.Time, err error) JobStatus {
	s.State = JobFailed
	s.FinishedAt = now
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
