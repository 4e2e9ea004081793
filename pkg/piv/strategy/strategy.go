// Package strategy implements the two encoding strategies: a
// single-shot FixedRate encode, and a retry-bounded
// "closest without going over" TargetSize search seeded from the
// ratetable calibration.
package strategy

import (
	"context"
	"fmt"
	"image"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/jp2"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/ratetable"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/roi"
)

// targetSizeSafetyMargin shrinks the effective target so a real-world
// budget is comfortably met rather than just grazed.
const targetSizeSafetyMargin = 0.95

// Encoder is the single encode primitive both strategies drive.
type Encoder func(img *image.RGBA, rate float64) ([]byte, error)

// NewJP2Encoder binds an Encoder to the jp2 package with a fixed ROI
// configuration and start level, varying only the rate per call.
func NewJP2Encoder(regions roi.Set, enableROI bool, roiStartLevel int, alignROI bool) Encoder {
	return func(img *image.RGBA, rate float64) ([]byte, error) {
		return jp2.Encode(img, jp2.EncodeOptions{
			RateBitsPerPixel: rate,
			EnableROI:        enableROI,
			ROIStartLevel:    roiStartLevel,
			AlignROI:         alignROI,
			Regions:          regions,
		})
	}
}

// Result is the outcome of running an encoding strategy: the bytes
// produced, the rate that actually produced them, and how many encode
// attempts were spent getting there.
type Result struct {
	Bytes    []byte
	Rate     float64
	Attempts int
}

// FixedRate invokes the encoder once at the requested rate. Retries are
// never used.
func FixedRate(ctx context.Context, encode Encoder, img *image.RGBA, rate float64) (Result, error) {
	if err := checkCancelled(ctx); err != nil {
		return Result{}, err
	}
	bytes, err := encode(img, rate)
	if err != nil {
		return Result{}, err
	}
	return Result{Bytes: bytes, Rate: rate, Attempts: 1}, nil
}

// TargetSize runs the retry-bounded "Price-Is-Right" search: seed from
// the rate table, try maxRetries+1 rates in
// high-to-low order around the seed, and return the first (highest)
// rate whose byte count does not exceed targetBytes. The context is
// checked before every encode attempt.
func TargetSize(ctx context.Context, encode Encoder, img *image.RGBA, targetBytes int, maxRetries int) (Result, error) {
	effectiveTarget := int(float64(targetBytes) * targetSizeSafetyMargin)

	seedIdx, ok := ratetable.HighestRateUnder(effectiveTarget)
	if !ok {
		seedIdx = 0
	}

	if maxRetries == 0 {
		if err := checkCancelled(ctx); err != nil {
			return Result{}, err
		}
		rate := ratetable.Table[seedIdx].Rate
		bytes, err := encode(img, rate)
		if err != nil {
			return Result{}, err
		}
		return Result{Bytes: bytes, Rate: rate, Attempts: 1}, nil
	}

	n := maxRetries + 1
	nHigh := n / 2
	nLow := (n + 1) / 2 // ceil(n/2)

	indices := buildSearchOrder(seedIdx, nHigh, nLow, len(ratetable.Table))

	attempts := 0
	for _, idx := range indices {
		if err := checkCancelled(ctx); err != nil {
			return Result{}, err
		}
		rate := ratetable.Table[idx].Rate
		bytes, err := encode(img, rate)
		if err != nil {
			return Result{}, err
		}
		attempts++
		if len(bytes) <= targetBytes {
			return Result{Bytes: bytes, Rate: rate, Attempts: attempts}, nil
		}
	}

	return Result{}, pivrerr.New(pivrerr.TargetSizeUnachievable, "target_size",
		fmt.Sprintf("cannot compress to target of %d bytes within %d attempts", targetBytes, len(indices)))
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return pivrerr.Wrap(pivrerr.Timeout, "encode", "cancelled before encode attempt", ctx.Err())
	default:
		return nil
	}
}

// buildSearchOrder builds the ordered list of table indices the search
// visits: nHigh rates above the seed (clipped at the table end),
// then the seed itself, then nLow-1 rates below the seed (clipped at
// zero) — visited highest rate first.
func buildSearchOrder(seedIdx, nHigh, nLow, tableLen int) []int {
	var order []int

	for i := 1; i <= nHigh; i++ {
		idx := seedIdx + i
		if idx >= tableLen {
			break
		}
		order = append(order, idx)
	}

	// Reverse so the highest of the "above" rates comes first; the loop
	// above appended ascending, but we want nearest-above last so the
	// list overall still reads highest-to-lowest once combined with the
	// seed and the below-seed rates.
	reverse(order)

	order = append(order, seedIdx)

	for i := 1; i <= nLow-1; i++ {
		idx := seedIdx - i
		if idx < 0 {
			break
		}
		order = append(order, idx)
	}

	return order
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
