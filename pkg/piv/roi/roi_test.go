package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/transform"
)

func TestBuildProducesCenteredRegion(t *testing.T) {
	set, err := Build()
	require.NoError(t, err)
	require.Len(t, set.Regions, 1)

	r, err := set.Inner()
	require.NoError(t, err)

	assert.Equal(t, InnerRegionPriority, r.Priority)
	assert.Greater(t, r.Rect.W, 0)
	assert.Greater(t, r.Rect.H, 0)
	assert.LessOrEqual(t, r.Rect.X+r.Rect.W, transform.OutputWidth)
	assert.LessOrEqual(t, r.Rect.Y+r.Rect.H, transform.OutputHeight)

	// Centered: left margin should equal right margin within rounding.
	rightMargin := transform.OutputWidth - (r.Rect.X + r.Rect.W)
	assert.InDelta(t, r.Rect.X, rightMargin, 1)
}

func TestInnerMissingIsError(t *testing.T) {
	var s Set
	_, err := s.Inner()
	assert.Error(t, err)
}
