// Package roi builds the Appendix C.6 region-of-interest rectangle used
// to drive maxshift ROI priority coding in the JPEG 2000 encoder.
package roi

import (
	"math"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/geom"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/transform"
)

// InnerRegionPriority is the fixed priority level Appendix C.6 assigns
// the inner facial region; interpreted by the JPEG 2000 adapter as the
// maxshift ROI.
const InnerRegionPriority = 3

// innerRegionWidthFraction and innerRegionHeightFraction size the fixed
// Appendix C.6 rectangle as a fraction of the 420x560 frame. The
// standard's exact pixel bounds are not reproduced in any source this
// pipeline was built from; these fractions were chosen to cover the
// central facial region (eyes through chin, full head width) the way
// compliant readers expect, and are recorded as an explicit design
// decision rather than a transcription of the standard text.
const (
	innerRegionWidthFraction  = 0.72
	innerRegionHeightFraction = 0.82
)

// Region is a single named, prioritised rectangle within the final
// frame.
type Region struct {
	Rect     geom.Rect
	Priority int
	Name     string
}

// Set is the full collection of ROI regions for one image. Appendix C.6
// currently defines exactly one: the inner region.
type Set struct {
	Regions []Region
}

// Inner returns the inner facial region, panicking the caller's
// invariant violations upward as a typed error rather than a silent
// zero-value region: an out-of-bounds or degenerate rectangle here is a
// programming error, not a runtime condition to recover from.
func (s Set) Inner() (Region, error) {
	for _, r := range s.Regions {
		if r.Name == "inner" {
			return r, nil
		}
	}
	return Region{}, pivrerr.New(pivrerr.Internal, "roi", "inner region missing from RoiSet")
}

// Build constructs the Appendix C.6 RoiSet for the fixed 420x560 output
// frame.
func Build() (Set, error) {
	w := int(math.Trunc(float64(transform.OutputWidth) * innerRegionWidthFraction))
	h := int(math.Trunc(float64(transform.OutputHeight) * innerRegionHeightFraction))
	if w <= 0 || h <= 0 || w > transform.OutputWidth || h > transform.OutputHeight {
		return Set{}, pivrerr.New(pivrerr.Internal, "roi", "computed inner region has invalid dimensions")
	}

	x := (transform.OutputWidth - w) / 2
	y := (transform.OutputHeight - h) / 2

	region := Region{
		Rect:     geom.Rect{X: x, Y: y, W: w, H: h},
		Priority: InnerRegionPriority,
		Name:     "inner",
	}

	return Set{Regions: []Region{region}}, nil
}
