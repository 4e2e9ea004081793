package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
)

// detectorInputSize is the fixed square canvas RetinaFace-family models
// are trained against.
const detectorInputSize = 640

// detectorStrides are the three RetinaFace feature-map strides; each
// produces its own anchor grid and decode pass.
var detectorStrides = []int{8, 16, 32}

// anchorsPerCell is the number of anchor boxes generated per feature-map
// cell, at every stride.
const anchorsPerCell = 2

// anchorSizesByStride gives the two anchor (min-)sizes used at each
// stride, in the model's native pixel scale.
var anchorSizesByStride = map[int][2]float64{
	8:  {16, 32},
	16: {64, 128},
	32: {256, 512},
}

// hardConfidenceFloor is the detector's own internal quality gate,
// independent of ProcessingOptions.MinFaceConfidence: sub-0.9
// detections are dropped here before the orchestrator ever applies the
// user-facing threshold on top.
const hardConfidenceFloor = 0.9

const minBoxSide = 20.0

const nmsIoUThreshold = 0.4

const maxDetections = 750

// Detector runs RetinaFace-style face detection over ONNX Runtime. The
// session's input/output tensors are reused across calls, so concurrent
// Detect calls are serialized internally; callers never need their own
// lock.
type Detector struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	scoreTensors [3]*ort.Tensor[float32]
	bboxTensors  [3]*ort.Tensor[float32]
	landmTensors [3]*ort.Tensor[float32]
	anchorsByStr map[int][]prior
}

type prior struct {
	cx, cy, w, h float64 // in pixels of the 640x640 canvas
}

// NewDetector constructs a detector session bound to a RetinaFace ONNX
// blob. opts may be nil to use ORT defaults.
func NewDetector(modelPath string, opts *ort.SessionOptions) (*Detector, error) {
	inputShape := ort.NewShape(1, 3, detectorInputSize, detectorInputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	type outSpec struct {
		name  string
		shape ort.Shape
	}

	var scoreSpecs, bboxSpecs, landmSpecs []outSpec
	for _, stride := range detectorStrides {
		n := int64((detectorInputSize / stride) * (detectorInputSize / stride) * anchorsPerCell)
		scoreSpecs = append(scoreSpecs, outSpec{fmt.Sprintf("scores_%d", stride), ort.NewShape(n, 1)})
		bboxSpecs = append(bboxSpecs, outSpec{fmt.Sprintf("bboxes_%d", stride), ort.NewShape(n, 4)})
		landmSpecs = append(landmSpecs, outSpec{fmt.Sprintf("landmarks_%d", stride), ort.NewShape(n, 10)})
	}

	allSpecs := append(append(append([]outSpec{}, scoreSpecs...), bboxSpecs...), landmSpecs...)
	outputNames := make([]string, len(allSpecs))
	outputTensors := make([]*ort.Tensor[float32], len(allSpecs))
	outputValues := make([]ort.Value, len(allSpecs))

	cleanup := func(upTo int) {
		inputTensor.Destroy()
		for i := 0; i < upTo; i++ {
			outputTensors[i].Destroy()
		}
	}

	for i, spec := range allSpecs {
		t, err := ort.NewEmptyTensor[float32](spec.shape)
		if err != nil {
			cleanup(i)
			return nil, fmt.Errorf("create output tensor %s: %w", spec.name, err)
		}
		outputNames[i] = spec.name
		outputTensors[i] = t
		outputValues[i] = t
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"},
		outputNames,
		[]ort.Value{inputTensor},
		outputValues,
		opts,
	)
	if err != nil {
		cleanup(len(allSpecs))
		return nil, fmt.Errorf("create detector session: %w", err)
	}

	d := &Detector{
		session:      session,
		inputTensor:  inputTensor,
		anchorsByStr: buildPriors(),
	}
	for i := range detectorStrides {
		d.scoreTensors[i] = outputTensors[i]
		d.bboxTensors[i] = outputTensors[len(detectorStrides)+i]
		d.landmTensors[i] = outputTensors[2*len(detectorStrides)+i]
	}
	return d, nil
}

// buildPriors generates the anchor grid for every stride: anchor centers
// at (j+0.5)*stride, (i+0.5)*stride in the 640px canvas, two sizes per
// cell.
func buildPriors() map[int][]prior {
	out := make(map[int][]prior, len(detectorStrides))
	for _, stride := range detectorStrides {
		fm := detectorInputSize / stride
		sizes := anchorSizesByStride[stride]
		priors := make([]prior, 0, fm*fm*anchorsPerCell)
		for i := 0; i < fm; i++ {
			for j := 0; j < fm; j++ {
				cx := (float64(j) + 0.5) * float64(stride)
				cy := (float64(i) + 0.5) * float64(stride)
				for a := 0; a < anchorsPerCell; a++ {
					priors = append(priors, prior{cx: cx, cy: cy, w: sizes[a], h: sizes[a]})
				}
			}
		}
		out[stride] = priors
	}
	return out
}

// Detect runs face detection on img and returns detections sorted by
// descending confidence with pairwise IoU capped at the NMS threshold.
// An empty result is not an error; only an inference failure is.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	select {
	case <-ctx.Done():
		return nil, pivrerr.Wrap(pivrerr.Timeout, "detect", "cancelled before inference", ctx.Err())
	default:
	}

	lb := letterbox(img, detectorInputSize)
	chw := toCHWMeanSubtracted(lb.Canvas)

	d.mu.Lock()
	inputSlice := d.inputTensor.GetData()
	copy(inputSlice, chw)

	if err := d.session.Run(); err != nil {
		d.mu.Unlock()
		return nil, pivrerr.Wrap(pivrerr.Internal, "detect", "onnx inference failed", err)
	}

	detections := d.decode(lb)
	d.mu.Unlock()
	detections = nonMaxSuppression(detections, nmsIoUThreshold)
	if len(detections) > maxDetections {
		detections = detections[:maxDetections]
	}
	return detections, nil
}

func (d *Detector) decode(lb letterboxResult) []DetectedFace {
	var out []DetectedFace

	for si, stride := range detectorStrides {
		scores := d.scoreTensors[si].GetData()
		bboxes := d.bboxTensors[si].GetData()
		landm := d.landmTensors[si].GetData()
		priors := d.anchorsByStr[stride]

		for i, pr := range priors {
			score := float64(scores[i])
			if score < hardConfidenceFloor {
				continue
			}

			tx := float64(bboxes[i*4+0])
			ty := float64(bboxes[i*4+1])
			tw := float64(bboxes[i*4+2])
			th := float64(bboxes[i*4+3])

			cx := pr.cx + tx*0.1*pr.w
			cy := pr.cy + ty*0.1*pr.h
			w := pr.w * math.Exp(tw*0.2)
			h := pr.h * math.Exp(th*0.2)

			x1 := cx - w/2
			y1 := cy - h/2
			x2 := cx + w/2
			y2 := cy + h/2

			// Undo letterbox: subtract padding, divide by scale.
			x1 = (x1 - lb.PadX) / lb.Scale
			y1 = (y1 - lb.PadY) / lb.Scale
			x2 = (x2 - lb.PadX) / lb.Scale
			y2 = (y2 - lb.PadY) / lb.Scale

			x1 = clampF(x1, 0, float64(lb.SrcW-1))
			y1 = clampF(y1, 0, float64(lb.SrcH-1))
			x2 = clampF(x2, 0, float64(lb.SrcW-1))
			y2 = clampF(y2, 0, float64(lb.SrcH-1))

			bw := x2 - x1
			bh := y2 - y1
			if bw < minBoxSide || bh < minBoxSide {
				continue
			}

			face := DetectedFace{
				Box: geom.FaceBox{Rect: geom.Rect{
					X: int(x1), Y: int(y1), W: int(bw), H: int(bh),
				}},
				Confidence: score,
			}

			if len(landm) >= (i+1)*10 {
				face.HasLandmark = true
				pts := make([]geom.Point2D, 5)
				for li := 0; li < 5; li++ {
					lx := pr.cx + float64(landm[i*10+li*2])*0.1*pr.w
					ly := pr.cy + float64(landm[i*10+li*2+1])*0.1*pr.h
					lx = (lx - lb.PadX) / lb.Scale
					ly = (ly - lb.PadY) / lb.Scale
					pts[li] = geom.Point2D{X: lx, Y: ly}
				}
				face.Landmarks5 = Landmarks5{
					LeftEye: pts[0], RightEye: pts[1], Nose: pts[2],
					MouthLeft: pts[3], MouthRight: pts[4],
				}
			}

			out = append(out, face)
		}
	}

	return out
}

func nonMaxSuppression(faces []DetectedFace, iouThreshold float64) []DetectedFace {
	if len(faces) == 0 {
		return faces
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].Confidence > faces[j].Confidence })

	keep := make([]bool, len(faces))
	for i := range keep {
		keep[i] = true
	}
	for i := range faces {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(faces); j++ {
			if !keep[j] {
				continue
			}
			if faces[i].Box.IoU(faces[j].Box) > iouThreshold {
				keep[j] = false
			}
		}
	}

	result := make([]DetectedFace, 0, len(faces))
	for i, f := range faces {
		if keep[i] {
			result = append(result, f)
		}
	}
	return result
}

// Close releases the ONNX session and all tensors.
func (d *Detector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	for _, t := range d.scoreTensors {
		if t != nil {
			t.Destroy()
		}
	}
	for _, t := range d.bboxTensors {
		if t != nil {
			t.Destroy()
		}
	}
	for _, t := range d.landmTensors {
		if t != nil {
			t.Destroy()
		}
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
