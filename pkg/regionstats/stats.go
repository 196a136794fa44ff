package regionstats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bourque/wfc3-tools/internal/models"
)

// SigmaClip discards samples lying more than sigma standard deviations
// from the mean. Mean and population standard deviation are recomputed
// on each pass; at most iterations passes are made, fewer if a pass
// rejects nothing. Non-finite samples are always discarded.
// The input slice is not modified.
func SigmaClip(values []float64, sigma float64, iterations int) []float64 {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			kept = append(kept, v)
		}
	}

	for i := 0; i < iterations && len(kept) > 0; i++ {
		mean, std := stat.PopMeanStdDev(kept, nil)
		if std == 0 {
			break
		}
		limit := sigma * std

		next := kept[:0]
		for _, v := range kept {
			if math.Abs(v-mean) <= limit {
				next = append(next, v)
			}
		}
		if len(next) == len(kept) {
			break
		}
		kept = next
	}

	return kept
}

// ComputeStatistics summarizes a clipped region. The median of an even
// number of samples is the lower of the two middle values. The returned
// Region index is -1; callers that know the index set it themselves.
func ComputeStatistics(region []float64) (models.RegionStatistics, error) {
	if len(region) == 0 {
		return models.RegionStatistics{}, &EmptyRegionError{Region: -1}
	}

	sorted := make([]float64, len(region))
	copy(sorted, region)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)

	return models.RegionStatistics{
		Region:     -1,
		PixelCount: len(sorted),
		Mean:       mean,
		Median:     stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev:     std,
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
	}, nil
}
