package queue

import (
	"time"

	"fieldsync/internal/payload"
)

// Status represents the lifecycle of a queued job. There is no terminal
// success state: a job that applied remotely is deleted.
type Status string

const (
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// MaxErrorLength bounds the stored last_error text.
const MaxErrorLength = 250

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusPending, StatusFailed}

// Job represents one durable mutation awaiting remote application.
type Job struct {
	ID         int64
	Kind       payload.Kind
	RawPayload string
	Status     Status
	LastError  string
	CreatedAt  int64
	UpdatedAt  int64
}

// Decode parses and validates the stored payload.
func (j *Job) Decode() (payload.Payload, error) {
	return payload.Decode(j.Kind, j.RawPayload)
}

// Summary projects the job for pending lists. A job whose payload no longer
// decodes still gets a summary so it stays visible to the user.
func (j *Job) Summary() Summary {
	s := Summary{ID: j.ID, Kind: j.Kind, Status: j.Status, LastError: j.LastError}
	decoded, err := j.Decode()
	if err != nil {
		s.Label = string(j.Kind) + " (unreadable)"
		return s
	}
	ps := decoded.Summary()
	s.Label = ps.Label
	s.ContainerID = ps.ContainerID
	return s
}

// Created returns the creation timestamp as a time.Time.
func (j *Job) Created() time.Time {
	return time.UnixMilli(j.CreatedAt).UTC()
}

// Summary is the human-facing projection of one queued job.
type Summary struct {
	ID          int64
	Kind        payload.Kind
	Label       string
	ContainerID string
	Status      Status
	LastError   string
}

// Truncate bounds an error message to the stored limit.
func Truncate(message string) string {
	runes := []rune(message)
	if len(runes) <= MaxErrorLength {
		return message
	}
	return string(runes[:MaxErrorLength])
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
