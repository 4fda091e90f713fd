package domain

import "time"

// SubmitRequest is the body of POST /submissions.
type SubmitRequest struct {
	Input string `json:"input" validate:"required,min=1,max=4096"`
}

// SubmitResponse is returned when a submission was accepted and a job
// record written.
type SubmitResponse struct {
	JobID     string    `json:"job_id"`
	Type      JobType   `json:"type"`
	Status    JobStatus `json:"status"`
	Duplicate bool      `json:"duplicate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse carries a stable machine-readable kind plus a
// human-readable message. No upstream payloads pass through it.
type ErrorResponse struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}
