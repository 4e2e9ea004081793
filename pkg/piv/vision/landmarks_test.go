package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
)

func TestCropImageUsesSubImageWhenAvailable(t *testing.T) {
	src := solidImage(100, 100, color.White)
	src.Set(60, 60, color.RGBA{R: 255, A: 255})

	crop := cropImage(src, image.Rect(50, 50, 80, 80))
	assert.Equal(t, 30, crop.Bounds().Dx())
	assert.Equal(t, 30, crop.Bounds().Dy())

	r, _, _, _ := crop.At(60, 60).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestCropImageFallbackCopiesPixels(t *testing.T) {
	// Uniform images have no SubImage method, exercising the copy path.
	src := image.NewUniform(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	crop := cropImage(src, image.Rect(5, 5, 15, 25))
	assert.Equal(t, 10, crop.Bounds().Dx())
	assert.Equal(t, 20, crop.Bounds().Dy())
}

func TestLandmarks68EyeCenters(t *testing.T) {
	var lm FaceLandmarks68
	for i := 36; i < 42; i++ {
		lm.Points[i] = geom.Point2D{X: 100, Y: 50}
	}
	for i := 42; i < 48; i++ {
		lm.Points[i] = geom.Point2D{X: 200, Y: 54}
	}

	left := lm.LeftEyeCenter()
	right := lm.RightEyeCenter()
	assert.InDelta(t, 100, left.X, 1e-9)
	assert.InDelta(t, 50, left.Y, 1e-9)
	assert.InDelta(t, 200, right.X, 1e-9)
	assert.InDelta(t, 54, right.Y, 1e-9)
}

func TestLandmarks68MapPreservesOrder(t *testing.T) {
	var lm FaceLandmarks68
	for i := range lm.Points {
		lm.Points[i] = geom.Point2D{X: float64(i), Y: float64(i) * 2}
	}

	shifted := lm.Map(func(p geom.Point2D) geom.Point2D { return p.Add(10, 20) })
	for i := range shifted.Points {
		assert.InDelta(t, float64(i)+10, shifted.Points[i].X, 1e-9)
		assert.InDelta(t, float64(i)*2+20, shifted.Points[i].Y, 1e-9)
	}
}

func TestJawReturnsSeventeenPoints(t *testing.T) {
	var lm FaceLandmarks68
	assert.Len(t, lm.Jaw(), 17)
}
