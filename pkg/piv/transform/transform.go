// Package transform derives the rotation angle, rotates landmarks and
// the image in lock-step, computes the compliance-driven crop rectangle,
// and re-projects landmarks through crop and resize into the final
// 420x560 frame. It is the geometric heart of the pipeline, grounded in
// INCITS 385-2004 Appendix B.2.1's head-size/eye-position derivation.
package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

// OutputWidth and OutputHeight are the fixed PIV/TWIC portrait
// dimensions every credential image is normalised to.
const (
	OutputWidth  = 420
	OutputHeight = 560
)

// minCropWidth and minCropHeight are the smallest rotated-frame crop a
// portrait can be derived from; anything smaller lacks the context to
// fill 420x560 credibly.
const (
	minCropWidth  = 300
	minCropHeight = 400
)

// rotationZeroThreshold is the angle below which rotation is treated as
// exactly zero, avoiding a no-op rotate pass that would otherwise
// resample the image for an imperceptible correction.
const rotationZeroThreshold = 0.1

// targetHeadWidth is the CC (head width) the crop derivation targets in
// the final 420px-wide frame: the upper bound of the compliant
// [210, 240] range, chosen per spec for a visibly full portrait.
const targetHeadWidth = 240.0

// RotationAngle computes theta degrees from the eye centers: the
// negated atan2 of the eye vector, clamped to
// [-maxRotationDegrees, +maxRotationDegrees], snapped to zero inside
// rotationZeroThreshold.
func RotationAngle(leftEye, rightEye geom.Point2D, maxRotationDegrees float64) float64 {
	rad := math.Atan2(rightEye.Y-leftEye.Y, rightEye.X-leftEye.X)
	thetaRaw := -rad * 180 / math.Pi

	theta := thetaRaw
	if theta > maxRotationDegrees {
		theta = maxRotationDegrees
	}
	if theta < -maxRotationDegrees {
		theta = -maxRotationDegrees
	}
	if math.Abs(theta) <= rotationZeroThreshold {
		return 0
	}
	return theta
}

// RotateLandmarks carries a full 68-point set through a theta-degree
// rotation of an image of size dims, landing each point in the
// post-rotation frame geom.RotatedFrameSize(dims, theta) describes.
func RotateLandmarks(lm vision.FaceLandmarks68, dims geom.Dims, thetaDegrees float64) vision.FaceLandmarks68 {
	if thetaDegrees == 0 {
		return lm
	}
	return lm.Map(func(p geom.Point2D) geom.Point2D {
		return geom.RotatePoint(p, dims, thetaDegrees)
	})
}

// RotateImage rotates img by thetaDegrees about its own center into a
// canvas sized per geom.RotatedFrameSize, matching RotateLandmarks'
// frame exactly so image content and landmark coordinates never drift
// apart.
func RotateImage(img image.Image, thetaDegrees float64) *image.RGBA {
	bounds := img.Bounds()
	dims := geom.Dims{Width: bounds.Dx(), Height: bounds.Dy()}
	if thetaDegrees == 0 {
		out := image.NewRGBA(bounds)
		draw.Draw(out, bounds, img, bounds.Min, draw.Src)
		return out
	}

	// imaging rotates counter-clockwise for positive angles; landmark
	// rotation is clockwise-positive in the y-down pixel frame, hence
	// the sign flip. Black fill matches the detector letterbox padding.
	rotated := imaging.Rotate(img, -thetaDegrees, color.Black)

	// imaging grows its own canvas, which can disagree with
	// geom.RotatedFrameSize by a pixel of rounding. Both center their
	// content, so re-drawing into the frame RotateLandmarks assumes
	// costs at most half a pixel of shift.
	newDims := geom.RotatedFrameSize(dims, thetaDegrees)
	out := image.NewRGBA(image.Rect(0, 0, newDims.Width, newDims.Height))
	offX := (newDims.Width - rotated.Bounds().Dx()) / 2
	offY := (newDims.Height - rotated.Bounds().Dy()) / 2
	dst := image.Rect(offX, offY, offX+rotated.Bounds().Dx(), offY+rotated.Bounds().Dy())
	draw.Draw(out, dst, rotated, rotated.Bounds().Min, draw.Src)
	return out
}

// CropDerivation is the result of computing the compliance-driven crop:
// the rectangle itself plus whether it had to be clamped to the image
// bounds (a compliance warning, not a failure).
type CropDerivation struct {
	Rect    geom.Rect
	Clamped bool
}

// ComputeCrop derives the 3:4 crop rectangle from the already-rotated
// landmark set, sizing it so the head width lands on the compliant
// target and the eye line sits 40% from the top. rotatedDims is the
// size of the rotated image the landmarks live in.
func ComputeCrop(lm vision.FaceLandmarks68, rotatedDims geom.Dims) (CropDerivation, error) {
	jaw := lm.Jaw()
	xMin, xMax := jaw[0].X, jaw[0].X
	for _, p := range jaw {
		if p.X < xMin {
			xMin = p.X
		}
		if p.X > xMax {
			xMax = p.X
		}
	}
	cc := xMax - xMin
	if cc <= 0 {
		return CropDerivation{}, pivrerr.New(pivrerr.GeometryFailure, "compute_crop", "degenerate jaw contour: zero head width")
	}

	aaX := (xMin + xMax) / 2
	bbY := (lm.LeftEyeCenter().Y + lm.RightEyeCenter().Y) / 2

	k := float64(OutputWidth) / targetHeadWidth
	wc := cc * k
	hc := wc * float64(OutputHeight) / float64(OutputWidth)

	centerX := aaX
	centerY := bbY + 0.1*hc

	x := centerX - wc/2
	y := centerY - hc/2

	clamped := false
	if x < 0 {
		x = 0
		clamped = true
	}
	if y < 0 {
		y = 0
		clamped = true
	}
	if x+wc > float64(rotatedDims.Width) {
		x = float64(rotatedDims.Width) - wc
		if x < 0 {
			x = 0
		}
		clamped = true
	}
	if y+hc > float64(rotatedDims.Height) {
		y = float64(rotatedDims.Height) - hc
		if y < 0 {
			y = 0
		}
		clamped = true
	}

	w := math.Min(wc, float64(rotatedDims.Width)-x)
	h := math.Min(hc, float64(rotatedDims.Height)-y)
	if w < wc || h < hc {
		clamped = true
	}

	rect := geom.Rect{X: int(math.Round(x)), Y: int(math.Round(y)), W: int(math.Round(w)), H: int(math.Round(h))}

	if rect.W < minCropWidth || rect.H < minCropHeight {
		return CropDerivation{}, pivrerr.New(pivrerr.GeometryFailure, "compute_crop", "crop too small after clamping")
	}

	return CropDerivation{Rect: rect, Clamped: clamped}, nil
}

// CropResizeScale is the scale/offset pair the landmark re-projection
// needs: s = max(420/crop.w, 560/crop.h), plus the centering offsets for
// whichever dimension doesn't exactly fill the target frame.
type CropResizeScale struct {
	Scale        float64
	OffsetX      float64
	OffsetY      float64
	CropX, CropY float64
}

// ComputeReprojection derives the fill-and-center-crop scale/offset for
// mapping points in crop-local coordinates into the 420x560 frame.
func ComputeReprojection(crop geom.Rect) CropResizeScale {
	s := math.Max(float64(OutputWidth)/float64(crop.W), float64(OutputHeight)/float64(crop.H))
	scaledW := float64(crop.W) * s
	scaledH := float64(crop.H) * s
	offX := (float64(OutputWidth) - scaledW) / 2
	offY := (float64(OutputHeight) - scaledH) / 2
	return CropResizeScale{Scale: s, OffsetX: offX, OffsetY: offY, CropX: float64(crop.X), CropY: float64(crop.Y)}
}

// ReprojectPoint maps a point in the rotated source frame into the final
// 420x560 frame using the fill-and-center crop/resize mapping.
func (s CropResizeScale) ReprojectPoint(p geom.Point2D) geom.Point2D {
	return geom.Point2D{
		X: (p.X-s.CropX)*s.Scale + s.OffsetX,
		Y: (p.Y-s.CropY)*s.Scale + s.OffsetY,
	}
}

// ReprojectLandmarks carries an entire 68-point set through the
// fill-and-center crop/resize into the final frame.
func ReprojectLandmarks(lm vision.FaceLandmarks68, scale CropResizeScale) vision.FaceLandmarks68 {
	return lm.Map(scale.ReprojectPoint)
}

// CropAndResize performs the "fill, then center-crop" resize of img's
// crop rectangle into the fixed 420x560 output frame, matching the
// geometry ComputeReprojection describes exactly: scale up by s, then
// crop (not pad) whichever dimension overshoots the output frame.
func CropAndResize(img image.Image, crop geom.Rect) *image.RGBA {
	scale := ComputeReprojection(crop)

	scaledW := int(math.Round(float64(crop.W) * scale.Scale))
	scaledH := int(math.Round(float64(crop.H) * scale.Scale))
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}

	cropped := imaging.Crop(img, image.Rect(crop.X, crop.Y, crop.X+crop.W, crop.Y+crop.H))
	scaled := imaging.Resize(cropped, scaledW, scaledH, imaging.Lanczos)

	out := image.NewRGBA(image.Rect(0, 0, OutputWidth, OutputHeight))
	srcX := int(math.Round(-scale.OffsetX))
	srcY := int(math.Round(-scale.OffsetY))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(srcX, srcY), draw.Src)

	return out
}
