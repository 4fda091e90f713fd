// Package errs defines the discriminated error kinds the dispatch pipeline
// reports. Callers branch on Kind, never on error text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure.
type Kind string

const (
	// KindValidation marks malformed input. Never retried.
	KindValidation Kind = "validation"
	// KindAuth marks a control-plane credential or session failure that
	// survived the single re-login attempt.
	KindAuth Kind = "auth"
	// KindDuplicate marks a magnet whose hash the control plane already has.
	// Treated as success by the pipeline.
	KindDuplicate Kind = "duplicate"
	// KindTransient marks a network-level failure expected to be
	// retry-recoverable (connection refused, timeout, 5xx).
	KindTransient Kind = "transient"
	// KindUnavailable marks exhausted retries against the control plane.
	KindUnavailable Kind = "unavailable"
	// KindRejected marks a definitive control-plane refusal (4xx other
	// than auth).
	KindRejected Kind = "rejected"
	// KindContentUnavailable marks a video the downloader reports as
	// deleted, private or restricted.
	KindContentUnavailable Kind = "content_unavailable"
	// KindTimeout marks a subprocess or HTTP call that exceeded its bound.
	KindTimeout Kind = "timeout"
	// KindDownloader marks an unclassified downloader subprocess failure.
	KindDownloader Kind = "downloader"
	// KindStore marks a failed log append. The external dispatch it was
	// meant to record already happened.
	KindStore Kind = "store"
)

// Error carries a Kind alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or the empty Kind when err carries
// none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the stable message from err, falling back to a generic
// one so raw upstream payloads never reach untrusted callers.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
