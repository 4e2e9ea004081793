package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a CredentialJob through the queue/worker pipeline.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// CredentialJob is a request to turn one uploaded photo into a
// PIV/TWIC-compliant credential image. SourcePhotoKey and ResultKey are
// MinIO object keys; Options carries the serialized ProcessingOptions
// (or a named preset) the worker applies.
type CredentialJob struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	SourcePhotoKey  string          `json:"source_photo_key" db:"source_photo_key"`
	Preset          string          `json:"preset" db:"preset"`
	Options         json.RawMessage `json:"options,omitempty" db:"options"`
	Status          JobStatus       `json:"status" db:"status"`
	ResultKey       string          `json:"result_key,omitempty" db:"result_key"`
	ErrorMessage    string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
