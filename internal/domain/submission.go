package domain

import "time"

// SubmissionStatus records whether a raw submission passed validation and
// dispatch.
type SubmissionStatus string

const (
	SubmissionAccepted       SubmissionStatus = "accepted"
	SubmissionRejected       SubmissionStatus = "rejected"
	SubmissionDispatchFailed SubmissionStatus = "dispatch_failed"
)

// ProbeOutcome is the advisory tracker reachability result attached to a
// submission entry. Reachable is nil when the probe is disabled, skipped or
// inconclusive.
type ProbeOutcome struct {
	Enabled    bool    `json:"enabled"`
	Reachable  *bool   `json:"reachable"`
	TrackerURL string  `json:"tracker_url,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	ElapsedMS  float64 `json:"elapsed_ms,omitempty"`
}

// SubmissionEntry is one line in the submission log: every HTTP request
// produces exactly one, valid or not.
type SubmissionEntry struct {
	ReceivedAt time.Time        `json:"received_at"`
	ClientIP   string           `json:"client_ip"`
	UserAgent  string           `json:"user_agent"`
	Input      string           `json:"input"`
	Status     SubmissionStatus `json:"status"`
	Kind       string           `json:"kind,omitempty"`
	SourceID   string           `json:"source_id,omitempty"`
	JobID      string           `json:"job_id,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
	Probe      *ProbeOutcome    `json:"probe,omitempty"`
}
