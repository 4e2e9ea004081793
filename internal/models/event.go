package models

import (
	"time"

	"github.com/google/uuid"
)

// CredentialResult is the persisted outcome of one successfully processed
// CredentialJob.
type CredentialResult struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	JobID                 uuid.UUID `json:"job_id" db:"job_id"`
	ResultKey             string    `json:"result_key" db:"result_key"`
	MIMEType              string    `json:"mime_type" db:"mime_type"`
	Width                 int       `json:"width" db:"width"`
	Height                int       `json:"height" db:"height"`
	AppliedRotation       float64   `json:"applied_rotation" db:"applied_rotation"`
	PrimaryFaceConfidence float64   `json:"primary_face_confidence" db:"primary_face_confidence"`
	ActualRate            float64   `json:"actual_rate" db:"actual_rate"`
	ActualSizeBytes       int       `json:"actual_size_bytes" db:"actual_size_bytes"`
	ComplianceSeverity    string    `json:"compliance_severity" db:"compliance_severity"`
	Warnings              []string  `json:"warnings,omitempty" db:"warnings"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// JobTask is the message published to NATS to hand a queued CredentialJob
// to a worker.
type JobTask struct {
	JobID          uuid.UUID `json:"job_id"`
	SourcePhotoKey string    `json:"source_photo_key"`
	Preset         string    `json:"preset"`
}

// JobCompletionEvent is published once a worker finishes (successfully or
// not) processing a JobTask, for websocket/event-stream consumers.
type JobCompletionEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	Status       JobStatus `json:"status"`
	ResultKey    string    `json:"result_key,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
