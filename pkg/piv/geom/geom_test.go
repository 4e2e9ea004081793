package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceBoxIoUIdentical(t *testing.T) {
	b := FaceBox{Rect{X: 10, Y: 10, W: 100, H: 100}}
	assert.Equal(t, 1.0, b.IoU(b))
}

func TestFaceBoxIoUDisjoint(t *testing.T) {
	a := FaceBox{Rect{X: 0, Y: 0, W: 10, H: 10}}
	b := FaceBox{Rect{X: 100, Y: 100, W: 10, H: 10}}
	assert.Equal(t, 0.0, a.IoU(b))
}

func TestFaceBoxIoUTouchingEdges(t *testing.T) {
	a := FaceBox{Rect{X: 0, Y: 0, W: 10, H: 10}}
	b := FaceBox{Rect{X: 10, Y: 0, W: 10, H: 10}}
	assert.Equal(t, 0.0, a.IoU(b))
}

func TestNormalisedRoundTrip(t *testing.T) {
	widths := []int{100, 640, 1920, 8000}
	for _, w := range widths {
		h := w * 3 / 4
		dims := Dims{Width: w, Height: h}
		n := NormalisedCropRect{Left: 0.1, Top: 0.2, Width: 0.5, Height: 0.4}
		px := n.ToPixels(dims)
		back := RectToNormalised(px, dims)
		px2 := back.ToPixels(dims)

		require.InDelta(t, float64(px.X), float64(px2.X), 1, "x mismatch for width %d", w)
		require.InDelta(t, float64(px.Y), float64(px2.Y), 1, "y mismatch for width %d", w)
		require.InDelta(t, float64(px.W), float64(px2.W), 1, "w mismatch for width %d", w)
		require.InDelta(t, float64(px.H), float64(px2.H), 1, "h mismatch for width %d", w)
	}
}

func TestRotatePointRoundTrip(t *testing.T) {
	dims := Dims{Width: 400, Height: 300}
	p := Point2D{X: 123, Y: 80}

	for theta := -30.0; theta <= 30.0; theta += 5 {
		rotatedDims := RotatedFrameSize(dims, theta)
		rp := RotatePoint(p, dims, theta)
		back := RotatePoint(rp, rotatedDims, -theta)

		// Each rotation grows the canvas, so back is expressed in a frame
		// larger than dims; the point's offset from its frame's center is
		// what the round trip preserves, within 1px of ceil rounding.
		finalDims := RotatedFrameSize(rotatedDims, -theta)
		wantX := p.X - float64(dims.Width)/2 + float64(finalDims.Width)/2
		wantY := p.Y - float64(dims.Height)/2 + float64(finalDims.Height)/2

		assert.InDelta(t, wantX, back.X, 1.0, "theta=%v", theta)
		assert.InDelta(t, wantY, back.Y, 1.0, "theta=%v", theta)
	}
}

func TestRotatedFrameSizeZero(t *testing.T) {
	dims := Dims{Width: 400, Height: 300}
	got := RotatedFrameSize(dims, 0)
	assert.Equal(t, dims, got)
}

func TestFaceBoxExpandClamped(t *testing.T) {
	b := FaceBox{Rect{X: 0, Y: 0, W: 10, H: 10}}
	e := b.Expand(1.0, 15, 15)
	assert.GreaterOrEqual(t, e.X, 0)
	assert.GreaterOrEqual(t, e.Y, 0)
	assert.LessOrEqual(t, e.X+e.W, 15)
	assert.LessOrEqual(t, e.Y+e.H, 15)
}

func TestRoundAwayFromZero(t *testing.T) {
	assert.Equal(t, 1, roundAwayFromZero(0.5))
	assert.Equal(t, -1, roundAwayFromZero(-0.5))
	assert.Equal(t, 2, roundAwayFromZero(1.5))
}

func TestAspectRatio(t *testing.T) {
	d := Dims{Width: 420, Height: 560}
	assert.InDelta(t, 0.75, d.AspectRatio(), 1e-9)
}

func TestRotatePointNoRotationIsIdentity(t *testing.T) {
	dims := Dims{Width: 200, Height: 100}
	p := Point2D{X: 50, Y: 25}
	got := RotatePoint(p, dims, 0)
	assert.InDelta(t, p.X, got.X, 1e-9)
	assert.InDelta(t, p.Y, got.Y, 1e-9)
}

func TestRotatedFrameSizeMonotone(t *testing.T) {
	dims := Dims{Width: 300, Height: 200}
	prevArea := 0
	for theta := 0.0; theta <= 45; theta += 15 {
		d := RotatedFrameSize(dims, theta)
		area := d.Width * d.Height
		assert.GreaterOrEqual(t, area, prevArea)
		prevArea = area
	}
}

func TestIoUHalfOverlap(t *testing.T) {
	a := FaceBox{Rect{X: 0, Y: 0, W: 10, H: 10}}
	b := FaceBox{Rect{X: 5, Y: 0, W: 10, H: 10}}
	iou := a.IoU(b)
	expected := 50.0 / 150.0
	assert.True(t, math.Abs(iou-expected) < 1e-9)
}
