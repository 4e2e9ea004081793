package strategy

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/ratetable"
)

func fakeEncoderFromTable() Encoder {
	return func(_ *image.RGBA, rate float64) ([]byte, error) {
		size := int(ratetable.ExpectedSizeForRate(rate))
		return make([]byte, size), nil
	}
}

func TestFixedRateSingleShot(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()
	res, err := FixedRate(context.Background(), encode, img, 0.55)
	require.NoError(t, err)
	assert.Equal(t, 0.55, res.Rate)
	assert.Len(t, res.Bytes, int(ratetable.ExpectedSizeForRate(0.55)))
}

func TestTargetSizeNoRetriesUsesSeedRegardlessOfFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()
	res, err := TargetSize(context.Background(), encode, img, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, ratetable.Table[0].Rate, res.Rate)
}

func TestTargetSizeFindsHighestFittingRate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()
	res, err := TargetSize(context.Background(), encode, img, 20000, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Bytes), 20000)
}

func TestTargetSizeUnachievableWhenNothingFits(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()
	_, err := TargetSize(context.Background(), encode, img, 1, 2)
	assert.Error(t, err)
	assert.Equal(t, pivrerr.TargetSizeUnachievable, pivrerr.KindOf(err))
}

func TestBuildSearchOrderHighestFirst(t *testing.T) {
	order := buildSearchOrder(5, 2, 3, 19)
	assert.Equal(t, []int{7, 6, 5, 4, 3}, order)
}

func TestBuildSearchOrderClipsAtTableEdges(t *testing.T) {
	order := buildSearchOrder(18, 3, 2, 19)
	// seedIdx=18 is the last index; nothing above it exists.
	assert.Equal(t, []int{18, 17}, order)
}

func TestTargetSizeObservesCancellation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TargetSize(ctx, encode, img, 20000, 4)
	require.Error(t, err)
	assert.Equal(t, pivrerr.Timeout, pivrerr.KindOf(err))
}

func TestTargetSizeReportsAttemptsSpent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()

	res, err := TargetSize(context.Background(), encode, img, 20000, 4)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Attempts, 1)
	assert.LessOrEqual(t, res.Attempts, 5)
}

func TestTargetSizeErrorNamesTarget(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 420, 560))
	encode := fakeEncoderFromTable()

	_, err := TargetSize(context.Background(), encode, img, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 bytes")
}
