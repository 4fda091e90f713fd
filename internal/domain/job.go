package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobType distinguishes the two dispatch paths.
type JobType string

const (
	JobTypeTorrent JobType = "torrent"
	JobTypeYouTube JobType = "youtube"
)

// JobStatus is the terminal state recorded for a job. There is no progress
// polling; a job is either queued with the external system or definitively
// failed.
type JobStatus string

const (
	JobStatusQueued JobStatus = "queued"
	JobStatusFailed JobStatus = "failed"
)

// JobRecord is one immutable line in the job log. Records are never updated
// in place; a later state would be a new record correlated by JobID.
type JobRecord struct {
	JobID               string    `json:"job_id"`
	Type                JobType   `json:"type"`
	Status              JobStatus `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	SourceID            string    `json:"source_id"`
	DisplayName         string    `json:"display_name,omitempty"`
	Duplicate           bool      `json:"duplicate,omitempty"`
	ControlPlaneVersion string    `json:"control_plane_version,omitempty"`
	OutputPath          string    `json:"output_path,omitempty"`
	Title               string    `json:"title,omitempty"`
	DurationSeconds     float64   `json:"duration_seconds,omitempty"`
	ErrorDetail         string    `json:"error_detail,omitempty"`
}

// NewJobID returns a fresh opaque job identifier. Assigned exactly once,
// at record creation.
func NewJobID() string {
	return uuid.New().String()
}

// Now returns the record timestamp: UTC, microsecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
