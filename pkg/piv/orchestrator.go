// Package piv is the public entry point for the biometric credential
// image pipeline: given raw photo bytes and ProcessingOptions, it
// detects a face, extracts landmarks, derives rotation and crop
// geometry per INCITS 385-2004, and encodes a compliant 420x560 JPEG
// 2000 image with ROI priority coding.
package piv

import (
	"context"
	"image"
	"time"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/compliance"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/roi"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/strategy"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/transform"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

// ImageProcessor is the long-lived orchestrator. It holds the two ONNX
// inference sessions, which are expensive to construct and are shared
// across every request the process serves; it does not close them.
type ImageProcessor struct {
	detector  *vision.Detector
	landmarks *vision.LandmarkExtractor
}

// NewImageProcessor constructs an ImageProcessor bound to the given
// detector and landmark extractor. Both must already be initialised
// (see vision.NewDetector, vision.NewLandmarkExtractor) and are owned by
// the caller for the lifetime of the process.
func NewImageProcessor(detector *vision.Detector, landmarks *vision.LandmarkExtractor) *ImageProcessor {
	return &ImageProcessor{detector: detector, landmarks: landmarks}
}

// Process runs the full pipeline, decode through encode, and returns a
// ProcessingResult, or a typed *pivrerr.Error on failure.
func (p *ImageProcessor) Process(ctx context.Context, data []byte, opts ProcessingOptions) (ProcessingResult, error) {
	start := time.Now()

	// Step 1: validate option ranges.
	if err := opts.Validate(); err != nil {
		return ProcessingResult{}, err
	}

	// Step 2: apply the processing timeout as a cancellation budget
	// covering every subsequent step.
	ctx, cancel := context.WithTimeout(ctx, opts.ProcessingTimeout)
	defer cancel()

	// Step 3: decode source bytes.
	img, err := decodeImage(data, opts.PreserveMetadata)
	if err != nil {
		return ProcessingResult{}, err
	}

	// Step 4: detect faces, pick the primary one.
	primary, err := p.selectPrimaryFace(ctx, img, opts)
	if err != nil {
		return ProcessingResult{}, err
	}

	// Step 5: extract 68 landmarks in source coordinates.
	select {
	case <-ctx.Done():
		return ProcessingResult{}, pivrerr.Wrap(pivrerr.Timeout, "landmarks", "cancelled before landmark extraction", ctx.Err())
	default:
	}
	landmarks68, err := p.landmarks.Extract(img, primary.Box)
	if err != nil {
		return ProcessingResult{}, pivrerr.Wrap(pivrerr.LandmarkExtractionFailed, "landmarks", "landmark inference failed", err)
	}

	// Step 6: compute rotation from eyes, rotate the image and landmarks.
	theta := transform.RotationAngle(landmarks68.LeftEyeCenter(), landmarks68.RightEyeCenter(), opts.MaxRotationDegrees)

	srcBounds := img.Bounds()
	srcDims := geom.Dims{Width: srcBounds.Dx(), Height: srcBounds.Dy()}
	rotatedImg := transform.RotateImage(img, theta)
	rotatedLandmarks := transform.RotateLandmarks(landmarks68, srcDims, theta)
	rotatedDims := geom.Dims{Width: rotatedImg.Bounds().Dx(), Height: rotatedImg.Bounds().Dy()}

	// Step 7: derive the crop from the rotated landmarks.
	cropDerivation, err := transform.ComputeCrop(rotatedLandmarks, rotatedDims)
	if err != nil {
		return ProcessingResult{}, err
	}

	// Step 8: crop, resize to 420x560, re-project landmarks.
	finalImg := transform.CropAndResize(rotatedImg, cropDerivation.Rect)
	reprojScale := transform.ComputeReprojection(cropDerivation.Rect)
	finalLandmarks := transform.ReprojectLandmarks(rotatedLandmarks, reprojScale)

	// Step 9: build the ROI set and compliance report.
	regions, err := roi.Build()
	if err != nil {
		return ProcessingResult{}, err
	}
	report := compliance.Evaluate(finalLandmarks, theta, opts.MaxRotationDegrees).WithCropClamped(cropDerivation.Clamped)

	// Step 10: invoke the configured encoding strategy. The strategy
	// observes ctx before every encode attempt.
	encoder := strategy.NewJP2Encoder(regions, opts.EnableROI, opts.ROIStartLevel, opts.AlignROI)

	var encResult strategy.Result
	var targetBytesPtr *int
	switch opts.Strategy.Kind {
	case StrategyFixedRate:
		encResult, err = strategy.FixedRate(ctx, encoder, finalImg, opts.Strategy.Rate)
	case StrategyTargetSize:
		target := opts.Strategy.TargetBytes
		targetBytesPtr = &target
		encResult, err = strategy.TargetSize(ctx, encoder, finalImg, target, opts.MaxRetries)
	}
	if err != nil {
		return ProcessingResult{}, err
	}

	// Step 11: assemble the result.
	warnings := []string{}
	if cropDerivation.Clamped {
		warnings = append(warnings, "crop rectangle was clamped to image bounds")
	}
	if report.Severity == compliance.SeverityWarning {
		warnings = append(warnings, "compliance geometry is within tolerance but not ideal")
	} else if report.Severity == compliance.SeverityError {
		warnings = append(warnings, "compliance geometry failed validation")
	}

	return ProcessingResult{
		Bytes:                 encResult.Bytes,
		MIMEType:              "image/jp2",
		Dimensions:            ImageDimensions{Width: transform.OutputWidth, Height: transform.OutputHeight},
		AppliedRotation:       theta,
		PrimaryFaceConfidence: primary.Confidence,
		ActualRate:            encResult.Rate,
		TargetBytes:           targetBytesPtr,
		EncodeAttempts:        encResult.Attempts,
		ProcessingDuration:    time.Since(start),
		Warnings:              warnings,
		ComplianceReport:      report,
		Landmarks:             finalLandmarks,
		AdditionalData: map[string]any{
			"landmarks_68":      finalLandmarks,
			"compliance_report": report,
			"roi_set":           regions,
		},
	}, nil
}

// selectPrimaryFace runs detection and applies the confidence and
// single-face selection rules.
func (p *ImageProcessor) selectPrimaryFace(ctx context.Context, img image.Image, opts ProcessingOptions) (vision.DetectedFace, error) {
	faces, err := p.detector.Detect(ctx, img)
	if err != nil {
		return vision.DetectedFace{}, err
	}
	return selectPrimary(faces, opts.MinFaceConfidence, opts.RequireSingleFace)
}

// selectPrimary applies the face-selection rules to an
// already-detected list: filter by min confidence, reject multiple
// survivors when a single face is required, else take the
// highest-confidence survivor. Factored out of selectPrimaryFace so the
// selection policy is testable without an ONNX session.
func selectPrimary(faces []vision.DetectedFace, minConfidence float64, requireSingleFace bool) (vision.DetectedFace, error) {
	var eligible []vision.DetectedFace
	for _, f := range faces {
		if f.Confidence >= minConfidence {
			eligible = append(eligible, f)
		}
	}

	if len(eligible) == 0 {
		return vision.DetectedFace{}, pivrerr.New(pivrerr.NoFaceDetected, "select_face", "no faces met min_face_confidence")
	}
	if len(eligible) > 1 && requireSingleFace {
		return vision.DetectedFace{}, pivrerr.New(pivrerr.MultipleFaces, "select_face", "multiple faces met min_face_confidence")
	}

	best := eligible[0]
	for _, f := range eligible[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	return best, nil
}

// TryProcess is the non-throwing variant: instead of an error, it
// returns an explicit (ok, result, message) triple.
func (p *ImageProcessor) TryProcess(ctx context.Context, data []byte, opts ProcessingOptions) (bool, *ProcessingResult, string) {
	result, err := p.Process(ctx, data, opts)
	if err != nil {
		return false, nil, err.Error()
	}
	return true, &result, ""
}

// ProcessForPIV runs Process with the PivBalanced preset.
func (p *ImageProcessor) ProcessForPIV(ctx context.Context, data []byte) (ProcessingResult, error) {
	return p.Process(ctx, data, PivBalanced())
}

// ProcessForTWIC runs Process with the TwicMax preset.
func (p *ImageProcessor) ProcessForTWIC(ctx context.Context, data []byte) (ProcessingResult, error) {
	return p.Process(ctx, data, TwicMax())
}

// ProcessToSize runs Process with the default options, overriding only
// the encoding strategy to a TargetSize of targetBytes.
func (p *ImageProcessor) ProcessToSize(ctx context.Context, data []byte, targetBytes int) (ProcessingResult, error) {
	return p.Process(ctx, data, DefaultOptions().WithStrategy(TargetSize(targetBytes)))
}

// ProcessWithRate runs Process with the default options, overriding only
// the encoding strategy to a FixedRate of rate.
func (p *ImageProcessor) ProcessWithRate(ctx context.Context, data []byte, rate float64) (ProcessingResult, error) {
	return p.Process(ctx, data, DefaultOptions().WithStrategy(FixedRate(rate)))
}
