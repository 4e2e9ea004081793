package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

func TestRotationAngleLevelEyesIsZero(t *testing.T) {
	left := geom.Point2D{X: 100, Y: 200}
	right := geom.Point2D{X: 200, Y: 200}
	theta := RotationAngle(left, right, 15)
	assert.Equal(t, 0.0, theta)
}

func TestRotationAngleClampsToMax(t *testing.T) {
	left := geom.Point2D{X: 100, Y: 300}
	right := geom.Point2D{X: 200, Y: 0}
	theta := RotationAngle(left, right, 15)
	assert.InDelta(t, 15.0, theta, 1e-9)
}

func TestRotationAngleTiltedEyesCorrectedCounterClockwise(t *testing.T) {
	// Right eye lower than left eye => clockwise tilt => negative angle,
	// a counter-clockwise correction in the clockwise-positive pixel
	// frame.
	left := geom.Point2D{X: 100, Y: 195}
	right := geom.Point2D{X: 200, Y: 205}
	theta := RotationAngle(left, right, 15)
	assert.Less(t, theta, 0.0)
}

func makeLandmarks68() vision.FaceLandmarks68 {
	var lm vision.FaceLandmarks68
	// Jaw 0-16: spread along x from 100 to 300 at y=400.
	for i := 0; i <= 16; i++ {
		x := 100 + float64(i)*(200.0/16)
		lm.Points[i] = geom.Point2D{X: x, Y: 400}
	}
	// Fill remaining points with a benign default so Map etc. don't
	// operate on zero values in ways that would mask bugs.
	for i := 17; i < 68; i++ {
		lm.Points[i] = geom.Point2D{X: 200, Y: 300}
	}
	// Left eye cluster (36-41) and right eye cluster (42-47).
	for i := 36; i < 42; i++ {
		lm.Points[i] = geom.Point2D{X: 160, Y: 250}
	}
	for i := 42; i < 48; i++ {
		lm.Points[i] = geom.Point2D{X: 240, Y: 250}
	}
	return lm
}

func TestComputeCropBasic(t *testing.T) {
	lm := makeLandmarks68()
	dims := geom.Dims{Width: 800, Height: 800}
	cd, err := ComputeCrop(lm, dims)
	require.NoError(t, err)
	assert.False(t, cd.Clamped)
	assert.InDelta(t, 3.0/4.0, float64(cd.Rect.W)/float64(cd.Rect.H), 0.02)
}

func TestComputeCropDegenerateJaw(t *testing.T) {
	var lm vision.FaceLandmarks68
	for i := range lm.Points {
		lm.Points[i] = geom.Point2D{X: 200, Y: 200}
	}
	_, err := ComputeCrop(lm, geom.Dims{Width: 800, Height: 800})
	assert.Error(t, err)
}

func TestComputeCropTooSmallRejected(t *testing.T) {
	lm := makeLandmarks68()
	// A tiny image forces the clamped crop below the 300x400 minimum.
	dims := geom.Dims{Width: 250, Height: 250}
	_, err := ComputeCrop(lm, dims)
	assert.Error(t, err)
}

func TestComputeCropClampedNearEdge(t *testing.T) {
	var lm vision.FaceLandmarks68
	for i := 0; i <= 16; i++ {
		x := 10 + float64(i)*(200.0/16)
		lm.Points[i] = geom.Point2D{X: x, Y: 50}
	}
	for i := 17; i < 68; i++ {
		lm.Points[i] = geom.Point2D{X: 100, Y: 50}
	}
	for i := 36; i < 42; i++ {
		lm.Points[i] = geom.Point2D{X: 80, Y: 20}
	}
	for i := 42; i < 48; i++ {
		lm.Points[i] = geom.Point2D{X: 140, Y: 20}
	}
	dims := geom.Dims{Width: 800, Height: 800}
	cd, err := ComputeCrop(lm, dims)
	require.NoError(t, err)
	assert.True(t, cd.Clamped)
}

func TestComputeReprojectionFillsFrame(t *testing.T) {
	crop := geom.Rect{X: 10, Y: 10, W: 300, H: 400}
	s := ComputeReprojection(crop)
	assert.InDelta(t, float64(OutputWidth)/300, s.Scale, 1e-9)
	assert.InDelta(t, 0, s.OffsetY, 1e-9)
}

func TestReprojectPointRoundTripsCropOrigin(t *testing.T) {
	crop := geom.Rect{X: 50, Y: 50, W: 300, H: 400}
	s := ComputeReprojection(crop)
	p := geom.Point2D{X: 50, Y: 50}
	out := s.ReprojectPoint(p)
	assert.InDelta(t, s.OffsetX, out.X, 1e-9)
	assert.InDelta(t, s.OffsetY, out.Y, 1e-9)
}

func TestRotateImageIdentityAtZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.White)
	out := RotateImage(img, 0)
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestRotateLandmarksIdentityAtZero(t *testing.T) {
	lm := makeLandmarks68()
	out := RotateLandmarks(lm, geom.Dims{Width: 400, Height: 400}, 0)
	assert.Equal(t, lm, out)
}

func TestCropAndResizeProducesFixedDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 800))
	crop := geom.Rect{X: 100, Y: 100, W: 300, H: 400}
	out := CropAndResize(img, crop)
	assert.Equal(t, OutputWidth, out.Bounds().Dx())
	assert.Equal(t, OutputHeight, out.Bounds().Dy())
}

func TestReprojectedEyesStraddleFaceMidline(t *testing.T) {
	lm := makeLandmarks68()
	dims := geom.Dims{Width: 800, Height: 800}

	cd, err := ComputeCrop(lm, dims)
	require.NoError(t, err)

	scale := ComputeReprojection(cd.Rect)
	final := ReprojectLandmarks(lm, scale)

	jaw := final.Jaw()
	xMin, xMax := jaw[0].X, jaw[0].X
	for _, p := range jaw {
		if p.X < xMin {
			xMin = p.X
		}
		if p.X > xMax {
			xMax = p.X
		}
	}
	aaX := (xMin + xMax) / 2

	assert.Less(t, final.LeftEyeCenter().X, aaX)
	assert.Greater(t, final.RightEyeCenter().X, aaX)
}

func TestRotateLandmarksRoundTripWithinOnePixel(t *testing.T) {
	lm := makeLandmarks68()
	dims := geom.Dims{Width: 800, Height: 600}

	for _, theta := range []float64{-30, -12.5, 5, 17, 30} {
		rotated := RotateLandmarks(lm, dims, theta)
		rotatedDims := geom.RotatedFrameSize(dims, theta)
		back := RotateLandmarks(rotated, rotatedDims, -theta)

		// The double canvas growth translates every point by the frame
		// center delta; positions relative to center must survive intact.
		finalDims := geom.RotatedFrameSize(rotatedDims, -theta)
		dx := float64(finalDims.Width-dims.Width) / 2
		dy := float64(finalDims.Height-dims.Height) / 2

		for i := range lm.Points {
			assert.InDelta(t, lm.Points[i].X+dx, back.Points[i].X, 1.0, "point %d theta %v", i, theta)
			assert.InDelta(t, lm.Points[i].Y+dy, back.Points[i].Y, 1.0, "point %d theta %v", i, theta)
		}
	}
}
