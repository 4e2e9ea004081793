// Package geom provides the 2D geometry primitives shared by every stage
// of the credential image pipeline: points, pixel rectangles, bounding
// boxes with IoU, normalised crop rectangles, and the rotation helpers
// used to keep landmarks in lock-step with the image as it is rotated,
// cropped, and resized.
package geom

import "math"

// Point2D is an immutable 2D coordinate, used for landmarks and derived
// geometric anchors (eye centers, jaw midpoints, ...).
type Point2D struct {
	X, Y float64
}

// Add returns p translated by (dx, dy).
func (p Point2D) Add(dx, dy float64) Point2D {
	return Point2D{X: p.X + dx, Y: p.Y + dy}
}

// Dims is a positive integer width/height pair.
type Dims struct {
	Width, Height int
}

// AspectRatio returns width/height.
func (d Dims) AspectRatio() float64 {
	return float64(d.Width) / float64(d.Height)
}

// Rect is an integer pixel rectangle with positive width and height.
type Rect struct {
	X, Y, W, H int
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point2D {
	return Point2D{X: float64(r.X) + float64(r.W)/2, Y: float64(r.Y) + float64(r.H)/2}
}

// Area returns width*height.
func (r Rect) Area() int {
	return r.W * r.H
}

// FaceBox is a detector bounding box with a handful of derived
// operations used by NMS, tracking-free primary-face selection, and
// crop expansion.
type FaceBox struct {
	Rect
}

// IoU computes intersection-over-union against another box. Returns 0
// when the boxes are disjoint or merely touch along an edge (zero-area
// intersection), and exactly 1 for two identical boxes.
func (a FaceBox) IoU(b FaceBox) float64 {
	x1 := math.Max(float64(a.X), float64(b.X))
	y1 := math.Max(float64(a.Y), float64(b.Y))
	x2 := math.Min(float64(a.X+a.W), float64(b.X+b.W))
	y2 := math.Min(float64(a.Y+a.H), float64(b.Y+b.H))

	iw := math.Max(0, x2-x1)
	ih := math.Max(0, y2-y1)
	inter := iw * ih

	areaA := float64(a.Area())
	areaB := float64(b.Area())
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Expand grows the box by the given fraction of its own width/height on
// each side, clamped to [0, maxW) x [0, maxH).
func (a FaceBox) Expand(fraction float64, maxW, maxH int) FaceBox {
	padW := int(float64(a.W) * fraction)
	padH := int(float64(a.H) * fraction)

	x1 := clampInt(a.X-padW, 0, maxW)
	y1 := clampInt(a.Y-padH, 0, maxH)
	x2 := clampInt(a.X+a.W+padW, 0, maxW)
	y2 := clampInt(a.Y+a.H+padH, 0, maxH)

	w := x2 - x1
	h := y2 - y1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return FaceBox{Rect{X: x1, Y: y1, W: w, H: h}}
}

// NormalisedCropRect is a crop rectangle expressed as fractions of image
// size in [0, 1], independent of the image's actual pixel dimensions.
// Invariant: Left+Width <= 1 and Top+Height <= 1.
type NormalisedCropRect struct {
	Left, Top, Width, Height float64
}

// ToPixels converts the normalised rectangle into pixel coordinates for
// an image of the given dimensions, rounding to the nearest integer
// (ties away from zero) and clamping so no coordinate escapes the image.
func (n NormalisedCropRect) ToPixels(dims Dims) Rect {
	x := roundAwayFromZero(n.Left * float64(dims.Width))
	y := roundAwayFromZero(n.Top * float64(dims.Height))
	w := roundAwayFromZero(n.Width * float64(dims.Width))
	h := roundAwayFromZero(n.Height * float64(dims.Height))

	x = clampInt(x, 0, dims.Width)
	y = clampInt(y, 0, dims.Height)
	if x+w > dims.Width {
		w = dims.Width - x
	}
	if y+h > dims.Height {
		h = dims.Height - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectToNormalised converts a pixel rectangle back into normalised form
// for an image of the given dimensions. Round-trips within one pixel of
// ToPixels for images up to 8000px wide, per the rounding contract above.
func RectToNormalised(r Rect, dims Dims) NormalisedCropRect {
	return NormalisedCropRect{
		Left:   float64(r.X) / float64(dims.Width),
		Top:    float64(r.Y) / float64(dims.Height),
		Width:  float64(r.W) / float64(dims.Width),
		Height: float64(r.H) / float64(dims.Height),
	}
}

// RotatedFrameSize returns the dimensions of the canvas that fully
// contains `dims` after a rotation of thetaDegrees about its own center,
// per the INCITS rotate-then-crop derivation in the transform package:
// ceil(|W*cosθ| + |H*sinθ|) x ceil(|W*sinθ| + |H*cosθ|).
func RotatedFrameSize(dims Dims, thetaDegrees float64) Dims {
	rad := thetaDegrees * math.Pi / 180
	cos := math.Abs(math.Cos(rad))
	sin := math.Abs(math.Sin(rad))
	w := math.Ceil(float64(dims.Width)*cos + float64(dims.Height)*sin)
	h := math.Ceil(float64(dims.Width)*sin + float64(dims.Height)*cos)
	return Dims{Width: int(w), Height: int(h)}
}

// RotatePoint rotates p by thetaDegrees about the center of an image of
// size `dims`, returning the coordinate in the frame of the image after
// rotation (whose size is RotatedFrameSize(dims, thetaDegrees)). The new
// origin is translated so rotated content fills the new frame.
func RotatePoint(p Point2D, dims Dims, thetaDegrees float64) Point2D {
	newDims := RotatedFrameSize(dims, thetaDegrees)

	oldCx := float64(dims.Width) / 2
	oldCy := float64(dims.Height) / 2
	newCx := float64(newDims.Width) / 2
	newCy := float64(newDims.Height) / 2

	rad := thetaDegrees * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	dx := p.X - oldCx
	dy := p.Y - oldCy

	rx := dx*cos - dy*sin
	ry := dx*sin + dy*cos

	return Point2D{X: rx + newCx, Y: ry + newCy}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return int(math.Ceil(v - 0.5))
}
