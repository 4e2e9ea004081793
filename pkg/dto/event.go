package dto

import "github.com/google/uuid"

// WSEvent is a WebSocket message for real-time job completion delivery.
type WSEvent struct {
	Type   string         `json:"type"` // job_completed; Status tells completed from failed
	JobID  uuid.UUID      `json:"job_id"`
	Data   ResultResponse `json:"data,omitempty"`
	Status string         `json:"status,omitempty"`
}
