package regionstats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmaClipRemovesOutlier(t *testing.T) {
	region := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		region = append(region, 1)
	}
	region = append(region, 100)

	clipped := SigmaClip(region, 3, 1)
	assert.Len(t, clipped, 20)
	assert.NotContains(t, clipped, 100.0)
	assert.Len(t, region, 21, "input must not be modified")

	stats, err := ComputeStatistics(clipped)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.Mean)
	assert.Equal(t, 0.0, stats.StdDev)
}

func TestSigmaClipSmallSampleKeepsOutlier(t *testing.T) {
	// With six samples no value can be more than 5/sqrt(6) sigma from the mean
	clipped := SigmaClip([]float64{1, 1, 1, 1, 1, 100}, 3, 1)
	assert.Len(t, clipped, 6)
}

func TestSigmaClipSinglePass(t *testing.T) {
	region := make([]float64, 0, 52)
	for i := 0; i < 50; i++ {
		region = append(region, float64(i%2))
	}
	region = append(region, 10, 1000)

	// The first pass only removes 1000; 10 becomes an outlier afterwards
	once := SigmaClip(region, 3, 1)
	assert.Len(t, once, 51)
	assert.Contains(t, once, 10.0)

	twice := SigmaClip(region, 3, 2)
	assert.Len(t, twice, 50)
	assert.NotContains(t, twice, 10.0)
}

func TestSigmaClipDropsNonFinite(t *testing.T) {
	clipped := SigmaClip([]float64{1, math.NaN(), 2, math.Inf(1), 3}, 3, 1)
	assert.Equal(t, []float64{1, 2, 3}, clipped)

	assert.Empty(t, SigmaClip(nil, 3, 1))
}

func TestComputeStatistics(t *testing.T) {
	stats, err := ComputeStatistics([]float64{9, 2, 4, 5, 4, 7, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 8, stats.PixelCount)
	assert.InDelta(t, 5.0, stats.Mean, 1e-12)
	assert.Equal(t, 4.0, stats.Median, "lower middle value for an even count")
	assert.InDelta(t, 2.0, stats.StdDev, 1e-12, "population standard deviation")
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)

	odd, err := ComputeStatistics([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, odd.Median)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	_, err := ComputeStatistics(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyRegion))
}
