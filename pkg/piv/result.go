package piv

import (
	"time"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/compliance"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

// ImageDimensions is the final, fixed output size every successful
// result reports.
type ImageDimensions struct {
	Width, Height int
}

// ProcessingResult is the full outcome of a successful Process call.
type ProcessingResult struct {
	Bytes                 []byte
	MIMEType              string
	Dimensions            ImageDimensions
	AppliedRotation       float64
	PrimaryFaceConfidence float64
	ActualRate            float64
	TargetBytes           *int
	EncodeAttempts        int
	ProcessingDuration    time.Duration
	Warnings              []string
	ComplianceReport      compliance.Report
	Landmarks             vision.FaceLandmarks68
	AdditionalData        map[string]any
}
