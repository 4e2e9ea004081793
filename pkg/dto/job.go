package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CreateJobRequest submits a photo (already uploaded to MinIO under
// SourcePhotoKey) for credential image processing. Options overrides the
// named Preset field-by-field when present.
type CreateJobRequest struct {
	SourcePhotoKey string          `json:"source_photo_key" binding:"required"`
	Preset         string          `json:"preset,omitempty"`
	Options        json.RawMessage `json:"options,omitempty"`
}

type JobResponse struct {
	ID             uuid.UUID `json:"id"`
	SourcePhotoKey string    `json:"source_photo_key"`
	Preset         string    `json:"preset"`
	Status         string    `json:"status"`
	ResultKey      string    `json:"result_key,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// CreateBatchRequest submits multiple photos in one call; each is
// processed as an independent job.
type CreateBatchRequest struct {
	Jobs []CreateJobRequest `json:"jobs" binding:"required,min=1,dive"`
}

type CreateBatchResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// ResultResponse describes the compliance-relevant metadata of a
// completed credential image. The encoded bytes themselves are fetched
// separately via GET /v1/credentials/:id/image.
type ResultResponse struct {
	JobID                 uuid.UUID `json:"job_id"`
	MIMEType              string    `json:"mime_type"`
	Width                 int       `json:"width"`
	Height                int       `json:"height"`
	AppliedRotation       float64   `json:"applied_rotation"`
	PrimaryFaceConfidence float64   `json:"primary_face_confidence"`
	ActualRate            float64   `json:"actual_rate"`
	ActualSizeBytes       int       `json:"actual_size_bytes"`
	ComplianceSeverity    string    `json:"compliance_severity"`
	Warnings              []string  `json:"warnings,omitempty"`
	CreatedAt             string    `json:"created_at"`
}
