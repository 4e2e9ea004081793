package piv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

func faceWithConfidence(c float64) vision.DetectedFace {
	return vision.DetectedFace{
		Box:        geom.FaceBox{Rect: geom.Rect{X: 0, Y: 0, W: 100, H: 100}},
		Confidence: c,
	}
}

func TestSelectPrimaryNoEligibleFaceFails(t *testing.T) {
	faces := []vision.DetectedFace{faceWithConfidence(0.5)}
	_, err := selectPrimary(faces, 0.8, true)
	require.Error(t, err)
	assert.Equal(t, pivrerr.NoFaceDetected, pivrerr.KindOf(err))
}

func TestSelectPrimaryMultipleFacesFailsWhenRequired(t *testing.T) {
	faces := []vision.DetectedFace{faceWithConfidence(0.95), faceWithConfidence(0.9)}
	_, err := selectPrimary(faces, 0.8, true)
	require.Error(t, err)
	assert.Equal(t, pivrerr.MultipleFaces, pivrerr.KindOf(err))
}

func TestSelectPrimaryPicksHighestConfidenceWhenMultipleAllowed(t *testing.T) {
	faces := []vision.DetectedFace{faceWithConfidence(0.95), faceWithConfidence(0.99)}
	best, err := selectPrimary(faces, 0.8, false)
	require.NoError(t, err)
	assert.Equal(t, 0.99, best.Confidence)
}

func TestSelectPrimarySingleEligibleFaceSucceeds(t *testing.T) {
	faces := []vision.DetectedFace{faceWithConfidence(0.92), faceWithConfidence(0.5)}
	best, err := selectPrimary(faces, 0.8, true)
	require.NoError(t, err)
	assert.Equal(t, 0.92, best.Confidence)
}

func TestProcessRejectsInvalidOptionsBeforeAnyWork(t *testing.T) {
	// A processor with no sessions is safe here: validation fails before
	// any inference is attempted.
	p := NewImageProcessor(nil, nil)

	opts := DefaultOptions()
	opts.MinFaceConfidence = 2.0

	_, err := p.Process(context.Background(), []byte{0x1}, opts)
	require.Error(t, err)
	assert.Equal(t, pivrerr.InvalidInput, pivrerr.KindOf(err))
}

func TestProcessRejectsUndecodableBytesBeforeDetection(t *testing.T) {
	p := NewImageProcessor(nil, nil)

	_, err := p.Process(context.Background(), []byte("not an image"), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, pivrerr.InvalidInput, pivrerr.KindOf(err))
}

func TestTryProcessReportsFailureAsTriple(t *testing.T) {
	p := NewImageProcessor(nil, nil)

	ok, result, msg := p.TryProcess(context.Background(), nil, DefaultOptions())
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.NotEmpty(t, msg)
}
