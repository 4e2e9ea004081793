package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
)

func faceAt(x, y, w, h int, conf float64) DetectedFace {
	return DetectedFace{
		Box:        geom.FaceBox{Rect: geom.Rect{X: x, Y: y, W: w, H: h}},
		Confidence: conf,
	}
}

func TestNonMaxSuppressionDropsOverlapping(t *testing.T) {
	faces := []DetectedFace{
		faceAt(0, 0, 100, 100, 0.95),
		faceAt(5, 5, 100, 100, 0.90), // heavy overlap with the first, should be dropped
		faceAt(500, 500, 100, 100, 0.80),
	}

	kept := nonMaxSuppression(faces, 0.4)
	assert.Len(t, kept, 2)
	assert.Equal(t, 0.95, kept[0].Confidence)
	assert.Equal(t, 0.80, kept[1].Confidence)
}

func TestNonMaxSuppressionEmpty(t *testing.T) {
	kept := nonMaxSuppression(nil, 0.4)
	assert.Empty(t, kept)
}

func TestNonMaxSuppressionSortsDescending(t *testing.T) {
	faces := []DetectedFace{
		faceAt(0, 0, 10, 10, 0.5),
		faceAt(200, 200, 10, 10, 0.99),
		faceAt(400, 400, 10, 10, 0.7),
	}
	kept := nonMaxSuppression(faces, 0.4)
	assert.Len(t, kept, 3)
	assert.Equal(t, 0.99, kept[0].Confidence)
	assert.Equal(t, 0.7, kept[1].Confidence)
	assert.Equal(t, 0.5, kept[2].Confidence)
}

func TestClampF(t *testing.T) {
	assert.Equal(t, 0.0, clampF(-5, 0, 10))
	assert.Equal(t, 10.0, clampF(15, 0, 10))
	assert.Equal(t, 5.0, clampF(5, 0, 10))
}

func TestBuildPriorsCounts(t *testing.T) {
	priors := buildPriors()
	assert.Len(t, priors[8], 80*80*2)
	assert.Len(t, priors[16], 40*40*2)
	assert.Len(t, priors[32], 20*20*2)
}
