package state

import (
	"errors"
	"time"
)

// Status is the outcome of a transfer.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Record describes the most recent transfer.
type Record struct {
	// Image is the path of the image that was sent
	Image string `json:"image"`

	// Digest is the hex BLAKE2b-256 digest of the image
	Digest string `json:"digest"`

	// Device is the serial device the image was sent over
	Device string `json:"device"`

	// Preset names the protocol preset, empty if fully custom
	Preset string `json:"preset,omitempty"`

	// Header is the header format, e.g. "u64le/bytewise"
	Header string `json:"header"`

	BytesSent  int64 `json:"bytes_sent"`
	TotalBytes int64 `json:"total_bytes"`

	// ElapsedMS is the session duration in milliseconds
	ElapsedMS int64 `json:"elapsed_ms"`

	Status Status `json:"status"`

	// Error is the failure message, empty on success
	Error string `json:"error,omitempty"`

	// ErrorKind classifies the failure (configuration, channel_failure, ...)
	ErrorKind string `json:"error_kind,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// IsEmpty returns true if no transfer has been recorded.
func (r Record) IsEmpty() bool {
	return r.FinishedAt.IsZero()
}

// Elapsed returns the recorded session duration.
func (r Record) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS) * time.Millisecond
}

// Finish fills the outcome fields. kind is only used when err is non-nil.
func (r *Record) Finish(sent int64, elapsed time.Duration, err error, kind string, canceled bool) {
	r.BytesSent = sent
	r.ElapsedMS = elapsed.Milliseconds()
	r.FinishedAt = r.StartedAt.Add(elapsed)
	switch {
	case err == nil:
		r.Status = StatusComplete
		r.Error = ""
		r.ErrorKind = ""
		return
	case canceled:
		r.Status = StatusCanceled
	default:
		r.Status = StatusFailed
	}
	r.Error = err.Error()
	r.ErrorKind = kind
}

// Err reconstructs a plain error from a failed record.
func (r Record) Err() error {
	if r.Error == "" {
		return nil
	}
	return errors.New(r.Error)
}
