package piv

import (
	"time"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
)

func validationError(msg string) error {
	return pivrerr.New(pivrerr.InvalidInput, "validate_options", msg)
}

// EncodingStrategyKind tags which compression selection an
// EncodingStrategy record describes.
type EncodingStrategyKind string

const (
	StrategyFixedRate  EncodingStrategyKind = "fixed_rate"
	StrategyTargetSize EncodingStrategyKind = "target_size"
)

// EncodingStrategy is a tagged union: either a fixed bits/pixel rate or
// a target byte budget. Only the field matching Kind is meaningful.
type EncodingStrategy struct {
	Kind        EncodingStrategyKind
	Rate        float64
	TargetBytes int
}

// FixedRate builds a FixedRate encoding strategy at the given
// bits/pixel rate.
func FixedRate(rate float64) EncodingStrategy {
	return EncodingStrategy{Kind: StrategyFixedRate, Rate: rate}
}

// TargetSize builds a TargetSize encoding strategy for the given byte
// budget.
func TargetSize(targetBytes int) EncodingStrategy {
	return EncodingStrategy{Kind: StrategyTargetSize, TargetBytes: targetBytes}
}

// ProcessingOptions is the immutable configuration record every
// orchestrator entry point accepts. Use DefaultOptions or one of the
// named presets as a starting point and override individual fields.
type ProcessingOptions struct {
	MinFaceConfidence  float64
	RequireSingleFace  bool
	MaxRetries         int
	ProcessingTimeout  time.Duration
	PreserveMetadata   bool
	ROIStartLevel      int
	EnableROI          bool
	AlignROI           bool
	MaxRotationDegrees float64
	Strategy           EncodingStrategy
}

// DefaultOptions returns the baseline ProcessingOptions every preset
// starts from.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		MinFaceConfidence:  0.8,
		RequireSingleFace:  true,
		MaxRetries:         2,
		ProcessingTimeout:  30 * time.Second,
		PreserveMetadata:   false,
		ROIStartLevel:      3,
		EnableROI:          true,
		AlignROI:           false,
		MaxRotationDegrees: 15.0,
		Strategy:           FixedRate(0.7),
	}
}

// PivBalanced targets the default PIV card storage budget: TargetSize
// at 20,000 bytes.
func PivBalanced() ProcessingOptions {
	opts := DefaultOptions()
	opts.Strategy = TargetSize(20000)
	return opts
}

// TwicMax targets TWIC's tighter storage budget: TargetSize at 14,000
// bytes.
func TwicMax() ProcessingOptions {
	opts := DefaultOptions()
	opts.Strategy = TargetSize(14000)
	return opts
}

// Archival favors visual fidelity over size, at a fixed high rate, with
// a stricter face-confidence floor appropriate for record-keeping
// rather than card issuance.
func Archival() ProcessingOptions {
	opts := DefaultOptions()
	opts.Strategy = FixedRate(4.0)
	opts.MinFaceConfidence = 0.9
	return opts
}

// Preview produces a fast, low-fidelity rendering suitable for UI
// thumbnails ahead of final issuance, skipping ROI priority coding
// entirely since no downstream reader needs it.
func Preview() ProcessingOptions {
	opts := DefaultOptions()
	opts.Strategy = FixedRate(0.3)
	opts.EnableROI = false
	return opts
}

// WithStrategy returns a copy of opts with Strategy replaced, following
// the "immutable record with per-field override" idiom described for
// this pipeline.
func (o ProcessingOptions) WithStrategy(s EncodingStrategy) ProcessingOptions {
	o.Strategy = s
	return o
}

// WithMinFaceConfidence returns a copy of opts with MinFaceConfidence
// replaced.
func (o ProcessingOptions) WithMinFaceConfidence(v float64) ProcessingOptions {
	o.MinFaceConfidence = v
	return o
}

// WithMaxRotationDegrees returns a copy of opts with MaxRotationDegrees
// replaced.
func (o ProcessingOptions) WithMaxRotationDegrees(v float64) ProcessingOptions {
	o.MaxRotationDegrees = v
	return o
}

// Validate checks every documented option range, failing fast before
// any expensive work begins.
func (o ProcessingOptions) Validate() error {
	if o.MinFaceConfidence < 0 || o.MinFaceConfidence > 1 {
		return validationError("min_face_confidence must be in [0, 1]")
	}
	if o.MaxRotationDegrees < 0 || o.MaxRotationDegrees > 45 {
		return validationError("max_rotation_degrees must be in [0, 45]")
	}
	if o.ROIStartLevel < 0 || o.ROIStartLevel > 3 {
		return validationError("roi_start_level must be in [0, 3]")
	}
	if o.MaxRetries < 0 {
		return validationError("max_retries must be >= 0")
	}
	switch o.Strategy.Kind {
	case StrategyFixedRate:
		if o.Strategy.Rate <= 0 {
			return validationError("fixed rate must be > 0")
		}
	case StrategyTargetSize:
		if o.Strategy.TargetBytes <= 0 {
			return validationError("target_bytes must be > 0")
		}
	default:
		return validationError("unrecognised encoding strategy")
	}
	return nil
}
