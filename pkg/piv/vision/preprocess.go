package vision

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// letterboxResult is a scale-preserving resize of a source image into a
// square canvas, padded symmetrically, ready for CHW mean-subtracted
// encoding. It records the inverse transform needed to map detector
// output back into source-image pixel coordinates.
type letterboxResult struct {
	Canvas  *image.RGBA
	Scale   float64
	PadX    float64
	PadY    float64
	SrcW    int
	SrcH    int
	CanvasW int
	CanvasH int
}

// letterbox scale-preserving-resizes img into a canvasSize x canvasSize
// square, using bilinear interpolation (golang.org/x/image/draw, matching
// the resize quality the detector's training pipeline assumes), and pads
// symmetrically with black.
func letterbox(img image.Image, canvasSize int) letterboxResult {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := float64(canvasSize) / float64(srcW)
	if s2 := float64(canvasSize) / float64(srcH); s2 < scale {
		scale = s2
	}

	resizedW := int(float64(srcW) * scale)
	resizedH := int(float64(srcH) * scale)
	if resizedW < 1 {
		resizedW = 1
	}
	if resizedH < 1 {
		resizedH = 1
	}

	padX := float64(canvasSize-resizedW) / 2
	padY := float64(canvasSize-resizedH) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	dst := image.Rect(int(padX), int(padY), int(padX)+resizedW, int(padY)+resizedH)
	draw.BiLinear.Scale(canvas, dst, img, bounds, draw.Over, nil)

	return letterboxResult{
		Canvas:  canvas,
		Scale:   scale,
		PadX:    padX,
		PadY:    padY,
		SrcW:    srcW,
		SrcH:    srcH,
		CanvasW: canvasSize,
		CanvasH: canvasSize,
	}
}

// toCHWMeanSubtracted converts an RGBA canvas into a planar (CHW) float32
// slice in BGR channel order, subtracting the RetinaFace training mean
// (104, 117, 123) per channel. No scaling is applied beyond the mean
// subtraction, matching the model's expected input distribution.
func toCHWMeanSubtracted(canvas *image.RGBA) []float32 {
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()
	plane := w * h
	out := make([]float32, 3*plane)

	mean := [3]float32{104, 117, 123} // B, G, R

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := canvas.PixOffset(x, y)
			r := float32(canvas.Pix[off+0])
			g := float32(canvas.Pix[off+1])
			b := float32(canvas.Pix[off+2])
			idx := y*w + x
			out[idx] = b - mean[0]
			out[plane+idx] = g - mean[1]
			out[2*plane+idx] = r - mean[2]
		}
	}
	return out
}

// resizeTo112 resizes img (already cropped to a face box) into a 112x112
// RGB buffer normalised to [-1, 1], the PFLD landmark model's expected
// input. Returns the buffer plus the per-axis scale needed to map model
// output back into the crop's own pixel space.
func resizeTo112(img image.Image) (data []float32, scaleX, scaleY float64) {
	const size = 112
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, y)
			r := float32(dst.Pix[off+0])
			g := float32(dst.Pix[off+1])
			b := float32(dst.Pix[off+2])
			idx := y*size + x
			out[idx] = (r - 127.5) / 127.5
			out[plane+idx] = (g - 127.5) / 127.5
			out[2*plane+idx] = (b - 127.5) / 127.5
		}
	}

	return out, float64(srcW) / size, float64(srcH) / size
}
