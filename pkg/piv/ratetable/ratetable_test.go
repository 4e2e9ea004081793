package ratetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableIsMonotonicByRateAndSize(t *testing.T) {
	for i := 1; i < len(Table); i++ {
		assert.Greater(t, Table[i].Rate, Table[i-1].Rate)
		assert.Greater(t, Table[i].ExpectedSize, Table[i-1].ExpectedSize)
	}
}

func TestHighestRateUnderFindsLargestFit(t *testing.T) {
	idx, ok := HighestRateUnder(20000)
	assert.True(t, ok)
	assert.LessOrEqual(t, Table[idx].ExpectedSize, 20000)
	if idx+1 < len(Table) {
		assert.Greater(t, Table[idx+1].ExpectedSize, 20000)
	}
}

func TestHighestRateUnderTooSmallFails(t *testing.T) {
	_, ok := HighestRateUnder(100)
	assert.False(t, ok)
}

func TestExpectedSizeForRateExactRow(t *testing.T) {
	size := ExpectedSizeForRate(0.55)
	assert.Equal(t, 17700.0, size)
}

func TestExpectedSizeForRateInterpolates(t *testing.T) {
	size := ExpectedSizeForRate(0.585)
	assert.Greater(t, size, 17700.0)
	assert.Less(t, size, 19200.0)
}

func TestExpectedSizeForRateExtrapolatesBelow(t *testing.T) {
	size := ExpectedSizeForRate(0.1)
	assert.Less(t, size, float64(Table[0].ExpectedSize))
}

func TestExpectedSizeForRateExtrapolatesAbove(t *testing.T) {
	size := ExpectedSizeForRate(3.0)
	assert.Greater(t, size, float64(Table[len(Table)-1].ExpectedSize))
}

func TestIndexOfRateFound(t *testing.T) {
	idx, ok := IndexOfRate(0.96)
	assert.True(t, ok)
	assert.Equal(t, "TWIC max budget", Table[idx].Description)
}

func TestIndexOfRateNotFound(t *testing.T) {
	_, ok := IndexOfRate(0.999)
	assert.False(t, ok)
}
