package pivrerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesStageAndMessage(t *testing.T) {
	err := New(NoFaceDetected, "detect", "no faces found")
	assert.Contains(t, err.Error(), "detect")
	assert.Contains(t, err.Error(), "no faces found")
}

func TestWrapPreservesCauseThroughUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(EncodingFailed, "encode", "encoder died", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestKindOfExtractsKindThroughWrapping(t *testing.T) {
	inner := New(GeometryFailure, "compute_crop", "crop too small")
	outer := fmt.Errorf("pipeline: %w", inner)
	assert.Equal(t, GeometryFailure, KindOf(outer))
}

func TestKindOfUnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestIsMatchesKind(t *testing.T) {
	err := New(Timeout, "detect", "deadline exceeded")
	assert.True(t, Is(err, Timeout))
	assert.False(t, Is(err, NoFaceDetected))
}

func TestErrorsAsRecoversTypedError(t *testing.T) {
	err := Wrap(InvalidInput, "decode", "bad bytes", errors.New("png: short read"))
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "decode", pe.Stage)
}
