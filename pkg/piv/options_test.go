package piv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestPresetsValid(t *testing.T) {
	for _, opts := range []ProcessingOptions{PivBalanced(), TwicMax(), Archival(), Preview()} {
		assert.NoError(t, opts.Validate())
	}
}

func TestPivBalancedTargetsTwentyThousandBytes(t *testing.T) {
	opts := PivBalanced()
	assert.Equal(t, StrategyTargetSize, opts.Strategy.Kind)
	assert.Equal(t, 20000, opts.Strategy.TargetBytes)
}

func TestTwicMaxTargetsFourteenThousandBytes(t *testing.T) {
	opts := TwicMax()
	assert.Equal(t, 14000, opts.Strategy.TargetBytes)
}

func TestArchivalUsesHigherConfidenceFloor(t *testing.T) {
	opts := Archival()
	assert.Greater(t, opts.MinFaceConfidence, DefaultOptions().MinFaceConfidence)
	assert.Equal(t, StrategyFixedRate, opts.Strategy.Kind)
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	opts := DefaultOptions()
	opts.MinFaceConfidence = 1.5
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsOutOfRangeRotation(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRotationDegrees = 90
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsOutOfRangeRoiStartLevel(t *testing.T) {
	opts := DefaultOptions()
	opts.ROIStartLevel = 4
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsNegativeMaxRetries(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRetries = -1
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsNonPositiveFixedRate(t *testing.T) {
	opts := DefaultOptions().WithStrategy(FixedRate(0))
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsNonPositiveTargetBytes(t *testing.T) {
	opts := DefaultOptions().WithStrategy(TargetSize(0))
	assert.Error(t, opts.Validate())
}

func TestWithStrategyDoesNotMutateOriginal(t *testing.T) {
	base := DefaultOptions()
	modified := base.WithStrategy(TargetSize(5000))
	assert.Equal(t, StrategyFixedRate, base.Strategy.Kind)
	assert.Equal(t, StrategyTargetSize, modified.Strategy.Kind)
}
