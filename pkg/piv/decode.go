package piv

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
)

// decodeImage decodes raw bytes into an image.Image. When
// preserveMetadata is set, the source's EXIF segment is read and any
// Orientation tag is honoured, so a phone photo stored pre-rotation is
// right-side-up before face detection ever sees it. EXIF is never
// carried into the JPEG 2000 output either way.
func decodeImage(data []byte, preserveMetadata bool) (image.Image, error) {
	if len(data) == 0 {
		return nil, pivrerr.New(pivrerr.InvalidInput, "decode", "empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pivrerr.Wrap(pivrerr.InvalidInput, "decode", "invalid image data", err)
	}

	if preserveMetadata {
		img = applyExifOrientation(img, data)
	}
	return img, nil
}

// applyExifOrientation reads the EXIF Orientation tag, if present, and
// rotates/flips the decoded image to match. Any failure to read EXIF
// (no tag, no EXIF segment, unsupported format) leaves img untouched:
// orientation correction is best-effort, never fatal.
func applyExifOrientation(img image.Image, data []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.Rotate180(imaging.FlipH(img))
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
