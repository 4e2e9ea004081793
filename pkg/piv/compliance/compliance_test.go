package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

func landmarksFor(headWidth, eyeY float64) vision.FaceLandmarks68 {
	var lm vision.FaceLandmarks68
	half := headWidth / 2
	center := 210.0
	for i := 0; i <= 16; i++ {
		x := center - half + float64(i)*(headWidth/16)
		lm.Points[i] = geom.Point2D{X: x, Y: 500}
	}
	for i := 17; i < 68; i++ {
		lm.Points[i] = geom.Point2D{X: center, Y: eyeY}
	}
	for i := 36; i < 42; i++ {
		lm.Points[i] = geom.Point2D{X: center - 30, Y: eyeY}
	}
	for i := 42; i < 48; i++ {
		lm.Points[i] = geom.Point2D{X: center + 30, Y: eyeY}
	}
	return lm
}

func TestEvaluateFullyCompliant(t *testing.T) {
	lm := landmarksFor(225, 560*0.42)
	r := Evaluate(lm, 2.0, 15.0)
	assert.True(t, r.HeadWidthOK)
	assert.True(t, r.EyePositionOK)
	assert.True(t, r.RotationOK)
	assert.Equal(t, SeverityOK, r.Severity)
}

func TestEvaluateHeadWidthOutOfRangeIsError(t *testing.T) {
	lm := landmarksFor(100, 560*0.42)
	r := Evaluate(lm, 2.0, 15.0)
	assert.False(t, r.HeadWidthOK)
	assert.Equal(t, SeverityError, r.Severity)
}

func TestEvaluateEyePositionNearMissIsWarning(t *testing.T) {
	// 0.46 is just outside [0.40, 0.45] but within the 0.02 slack.
	lm := landmarksFor(225, 560*0.46)
	r := Evaluate(lm, 2.0, 15.0)
	assert.False(t, r.EyePositionOK)
	assert.Equal(t, SeverityWarning, r.Severity)
}

func TestEvaluateRotationAtCapIsNotOK(t *testing.T) {
	lm := landmarksFor(225, 560*0.42)
	r := Evaluate(lm, 15.0, 15.0)
	assert.False(t, r.RotationOK)
}

func TestWithCropClampedDowngradesOKToWarning(t *testing.T) {
	lm := landmarksFor(225, 560*0.42)
	r := Evaluate(lm, 2.0, 15.0)
	r = r.WithCropClamped(true)
	assert.Equal(t, SeverityWarning, r.Severity)
}

func TestWithCropClampedDoesNotDowngradeExistingError(t *testing.T) {
	lm := landmarksFor(100, 560*0.42)
	r := Evaluate(lm, 2.0, 15.0)
	r = r.WithCropClamped(true)
	assert.Equal(t, SeverityError, r.Severity)
}
