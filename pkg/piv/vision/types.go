// Package vision runs the two ONNX models the pipeline depends on: a
// RetinaFace-style detector (prior-box decode + NMS) and a PFLD-style
// 68-point landmark extractor. Both bind to ONNX Runtime via
// github.com/yalue/onnxruntime_go with long-lived sessions and
// preallocated input/output tensors.
package vision

import "github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"

// DetectedFace is a single face detection: a box, a confidence, and an
// optional 5-point landmark set (eyes, nose tip, mouth corners).
type DetectedFace struct {
	Box         geom.FaceBox
	Confidence  float64
	Landmarks5  Landmarks5
	HasLandmark bool
}

// Landmarks5 holds the 5-point landmark set RetinaFace regresses
// alongside each detection: left eye, right eye, nose tip, left mouth
// corner, right mouth corner.
type Landmarks5 struct {
	LeftEye, RightEye, Nose, MouthLeft, MouthRight geom.Point2D
}

// FaceLandmarks68 is the fixed, ordered 68-point landmark set: jaw
// contour (0-16), eyebrows (17-26), nose (27-35), left eye (36-41),
// right eye (42-47), mouth (48-67). Order is load-bearing; no sorting or
// filtering is ever applied to the slice.
type FaceLandmarks68 struct {
	Points [68]geom.Point2D
}

// Jaw returns the jaw contour points (0-16).
func (l FaceLandmarks68) Jaw() []geom.Point2D {
	return l.Points[0:17]
}

// LeftEyeIndices is points 36-41.
func (l FaceLandmarks68) LeftEyeIndices() []geom.Point2D {
	return l.Points[36:42]
}

// RightEyeIndices is points 42-47.
func (l FaceLandmarks68) RightEyeIndices() []geom.Point2D {
	return l.Points[42:48]
}

// LeftEyeCenter is the mean of the left-eye landmark cluster (36-41).
func (l FaceLandmarks68) LeftEyeCenter() geom.Point2D {
	return mean(l.LeftEyeIndices())
}

// RightEyeCenter is the mean of the right-eye landmark cluster (42-47).
func (l FaceLandmarks68) RightEyeCenter() geom.Point2D {
	return mean(l.RightEyeIndices())
}

// Map applies f to every point, returning a new FaceLandmarks68 with the
// same ordering. Used to carry landmarks through rotation, cropping, and
// resizing without ever re-sorting or dropping points.
func (l FaceLandmarks68) Map(f func(geom.Point2D) geom.Point2D) FaceLandmarks68 {
	var out FaceLandmarks68
	for i, p := range l.Points {
		out.Points[i] = f(p)
	}
	return out
}

func mean(pts []geom.Point2D) geom.Point2D {
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return geom.Point2D{X: sx / n, Y: sy / n}
}
