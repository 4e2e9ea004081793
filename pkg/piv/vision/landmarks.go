package vision

import (
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
)

// landmarkCropSize is the PFLD model's expected square input: a face box
// crop, expanded, resized to 112x112.
const landmarkCropSize = 112

// landmarkExpandFraction widens the detector's tight face box before the
// crop is fed to the landmark model, giving PFLD enough jaw/forehead
// context to place all 68 points reliably.
const landmarkExpandFraction = 0.25

// numLandmarks is the fixed PFLD output point count.
const numLandmarks = 68

// LandmarkExtractor runs a PFLD-style 68-point landmark regressor over a
// single face crop. Like Detector, it serializes concurrent Extract
// calls internally because the session tensors are reused.
type LandmarkExtractor struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewLandmarkExtractor loads a PFLD ONNX model. The model is expected to
// output numLandmarks*2 values in [0, 1], x/y interleaved, normalised to
// the 112x112 input crop.
func NewLandmarkExtractor(modelPath string, opts *ort.SessionOptions) (*LandmarkExtractor, error) {
	inputShape := ort.NewShape(1, 3, landmarkCropSize, landmarkCropSize)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(numLandmarks*2))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"},
		[]string{"landmarks"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create landmark session: %w", err)
	}

	return &LandmarkExtractor{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Extract runs the landmark model on the region of fullImage given by
// box, expanded by landmarkExpandFraction and clamped to the image
// bounds, and reconstructs all 68 points in fullImage's own pixel
// coordinate space.
func (e *LandmarkExtractor) Extract(fullImage image.Image, box geom.FaceBox) (FaceLandmarks68, error) {
	bounds := fullImage.Bounds()
	expanded := box.Expand(landmarkExpandFraction, bounds.Dx(), bounds.Dy())

	cropRect := image.Rect(expanded.X, expanded.Y, expanded.X+expanded.W, expanded.Y+expanded.H)
	crop := cropImage(fullImage, cropRect)

	data, scaleX, scaleY := resizeTo112(crop)

	e.mu.Lock()
	inputSlice := e.inputTensor.GetData()
	copy(inputSlice, data)

	if err := e.session.Run(); err != nil {
		e.mu.Unlock()
		return FaceLandmarks68{}, fmt.Errorf("run landmark inference: %w", err)
	}

	raw := make([]float32, numLandmarks*2)
	copy(raw, e.outputTensor.GetData())
	e.mu.Unlock()

	var out FaceLandmarks68
	for i := 0; i < numLandmarks; i++ {
		nx := float64(raw[i*2])
		ny := float64(raw[i*2+1])

		// Model output is normalised to the 112x112 crop; project back
		// into the crop's own pixel space, then translate into
		// fullImage coordinates using the crop's top-left offset.
		cropX := nx * landmarkCropSize * scaleX
		cropY := ny * landmarkCropSize * scaleY

		out.Points[i] = geom.Point2D{
			X: cropX + float64(expanded.X),
			Y: cropY + float64(expanded.Y),
		}
	}

	return out, nil
}

// Close releases the ONNX session and all tensors.
func (e *LandmarkExtractor) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
}

// cropImage returns the part of img within r, so downstream resizing
// never reads outside the intended crop. When img supports SubImage the
// result is a view sharing img's pixels and coordinates; otherwise it is
// a copied RGBA image with its origin at (0, 0).
func cropImage(img image.Image, r image.Rectangle) image.Image {
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
	return out
}
