// Package compliance recomputes the AA/BB/CC portrait geometry lines in
// the final 420x560 frame and validates them against INCITS 385-2004's
// head-width and eye-position tolerances.
package compliance

import (
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/transform"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

// Severity classifies how far a ComplianceReport is from fully
// satisfying the portrait geometry rules.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// headWidthMin and headWidthMax bound the compliant CC range in the
// 420px-wide final frame (ratios 1/2 to 4/7 of image width).
const (
	headWidthMin = 210.0
	headWidthMax = 240.0
)

// eyePositionMin and eyePositionMax bound BB_y/560, the compliant
// fraction-from-top range for the eye line.
const (
	eyePositionMin = 0.40
	eyePositionMax = 0.45
)

// eyePositionWarningSlack is the extra fraction-from-top tolerance that
// downgrades an eye-position miss from error to warning.
const eyePositionWarningSlack = 0.02

// Report is the recomputed geometry plus pass/fail flags for the final
// 420x560 frame.
type Report struct {
	HeadWidth       float64
	EyeLineY        float64
	AppliedRotation float64
	MaxRotation     float64

	HeadWidthOK   bool
	EyePositionOK bool
	RotationOK    bool

	Severity Severity
}

// Evaluate recomputes AA/BB/CC from the landmarks already re-projected
// into the final frame and validates them against the INCITS 385-2004
// portrait tolerances.
func Evaluate(finalLandmarks vision.FaceLandmarks68, appliedRotation, maxRotation float64) Report {
	jaw := finalLandmarks.Jaw()
	xMin, xMax := jaw[0].X, jaw[0].X
	for _, p := range jaw {
		if p.X < xMin {
			xMin = p.X
		}
		if p.X > xMax {
			xMax = p.X
		}
	}
	cc := xMax - xMin

	bbY := (finalLandmarks.LeftEyeCenter().Y + finalLandmarks.RightEyeCenter().Y) / 2

	report := Report{
		HeadWidth:       cc,
		EyeLineY:        bbY,
		AppliedRotation: appliedRotation,
		MaxRotation:     maxRotation,
	}

	report.HeadWidthOK = cc >= headWidthMin && cc <= headWidthMax

	eyeFraction := bbY / float64(transform.OutputHeight)
	report.EyePositionOK = eyeFraction >= eyePositionMin && eyeFraction <= eyePositionMax

	report.RotationOK = appliedRotation < maxRotation && appliedRotation > -maxRotation

	report.Severity = severityFor(report, eyeFraction)
	return report
}

func severityFor(r Report, eyeFraction float64) Severity {
	if r.HeadWidthOK && r.EyePositionOK && r.RotationOK {
		return SeverityOK
	}

	// An eye-position miss within eyePositionWarningSlack of either bound
	// downgrades to warning, provided head width and rotation are fine.
	nearMiss := !r.EyePositionOK && r.HeadWidthOK && r.RotationOK &&
		eyeFraction >= eyePositionMin-eyePositionWarningSlack &&
		eyeFraction <= eyePositionMax+eyePositionWarningSlack

	if nearMiss {
		return SeverityWarning
	}
	return SeverityError
}

// WithCropClamped folds in a clamped-crop condition reported by the
// transform stage: a clamped crop alone never raises severity past
// warning unless other checks have already failed.
func (r Report) WithCropClamped(clamped bool) Report {
	if !clamped {
		return r
	}
	if r.Severity == SeverityOK {
		r.Severity = SeverityWarning
	}
	return r
}
