package piv

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
)

func TestDecodeImageEmptyBytesFails(t *testing.T) {
	_, err := decodeImage(nil, false)
	require.Error(t, err)
	assert.Equal(t, pivrerr.InvalidInput, pivrerr.KindOf(err))
}

func TestDecodeImageInvalidBytesFails(t *testing.T) {
	_, err := decodeImage([]byte("not an image"), false)
	require.Error(t, err)
	assert.Equal(t, pivrerr.InvalidInput, pivrerr.KindOf(err))
}

func TestDecodeImageValidPNGSucceeds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	decoded, err := decodeImage(buf.Bytes(), true)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 4, decoded.Bounds().Dy())
}

func TestApplyExifOrientationNoExifLeavesImageUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	out := applyExifOrientation(img, []byte("not exif data"))
	assert.Equal(t, img.Bounds(), out.Bounds())
}
