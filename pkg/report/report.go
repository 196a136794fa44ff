// Package report writes region statistics, histograms and profiles as
// space-delimited text tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bourque/wfc3-tools/internal/models"
)

// StatisticsColumns is the header of a statistics table
var StatisticsColumns = []string{"region", "npix", "mean", "midpt", "stdev", "min", "max"}

// StatsFilename returns "<image>_<coords>.dat" built from the base names
// of both inputs without their extensions
func StatsFilename(imagePath, coordsPath string) string {
	return fmt.Sprintf("%s_%s.dat", stem(imagePath), stem(coordsPath))
}

// HistogramFilename returns "<image>_<coords>_hist_reg_<region>.dat"
func HistogramFilename(imagePath, coordsPath string, region int) string {
	return fmt.Sprintf("%s_%s_hist_reg_%d.dat", stem(imagePath), stem(coordsPath), region)
}

func stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func newTableWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ' '
	return cw
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteStatistics writes one row per region
func WriteStatistics(w io.Writer, stats []models.RegionStatistics) error {
	cw := newTableWriter(w)
	if err := cw.Write(StatisticsColumns); err != nil {
		return err
	}

	for _, s := range stats {
		row := []string{
			strconv.Itoa(s.Region),
			strconv.Itoa(s.PixelCount),
			formatFloat(s.Mean),
			formatFloat(s.Median),
			formatFloat(s.StdDev),
			formatFloat(s.Min),
			formatFloat(s.Max),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Histogram bins values into equal-width bins spanning their range.
// dividers has bins+1 entries; counts has bins entries. A constant
// input gets a unit-wide range starting at its value.
func Histogram(values []float64, bins int) (dividers, counts []float64, err error) {
	if bins <= 0 {
		return nil, nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("histogram of an empty region")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}

	dividers = floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram wants the maximum strictly below the last divider
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(nil, dividers, sorted, nil)
	return dividers, counts, nil
}

// WriteHistogram writes the histogram of values with columns
// bin_low, bin_high and count
func WriteHistogram(w io.Writer, values []float64, bins int) error {
	dividers, counts, err := Histogram(values, bins)
	if err != nil {
		return err
	}

	cw := newTableWriter(w)
	if err := cw.Write([]string{"bin_low", "bin_high", "count"}); err != nil {
		return err
	}
	for i, c := range counts {
		row := []string{formatFloat(dividers[i]), formatFloat(dividers[i+1]), strconv.Itoa(int(c))}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteProfiles writes an index column followed by one column per
// profile. Shorter profiles are padded with nan.
func WriteProfiles(w io.Writer, names []string, profiles [][]float64) error {
	if len(names) != len(profiles) {
		return fmt.Errorf("got %d names for %d profiles", len(names), len(profiles))
	}

	longest := 0
	for _, p := range profiles {
		if len(p) > longest {
			longest = len(p)
		}
	}

	cw := newTableWriter(w)
	if err := cw.Write(append([]string{"pixel"}, names...)); err != nil {
		return err
	}
	for i := 0; i < longest; i++ {
		row := make([]string, 0, len(profiles)+1)
		row = append(row, strconv.Itoa(i))
		for _, p := range profiles {
			if i < len(p) {
				row = append(row, formatFloat(p[i]))
			} else {
				row = append(row, "nan")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
