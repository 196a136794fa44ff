// Package regionstats computes sigma-clipped statistics for rectangular
// box and annulus regions of a 2-D image.
//
// A run takes one image and an ordered list of rectangle records and
// produces one RegionStatistics per record, in the same order:
//
//  1. The whole record list is classified once as boxes or annuli
//  2. Pixels are cut out of the image for every record
//  3. Outliers are rejected by sigma clipping
//  4. Count, mean, median, standard deviation, min and max are computed
//
// For annuli every record's inner box is excluded before any outer box is
// read, so an inner box of one record also punches a hole in the annulus
// of any other record it overlaps.
package regionstats

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bourque/wfc3-tools/internal/models"
)

// ExclusionMode selects how inner-box pixels are removed from an annulus
type ExclusionMode int

const (
	// ExclusionMask tracks excluded pixels in a boolean mask. Genuine
	// zero-valued samples survive.
	ExclusionMask ExclusionMode = iota

	// ExclusionSentinel zeroes inner boxes on a private copy of the image
	// and drops every 0.0 sample of the outer box, genuine zeros included.
	ExclusionSentinel
)

func (m ExclusionMode) String() string {
	switch m {
	case ExclusionMask:
		return "mask"
	case ExclusionSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// ParseExclusionMode converts a config value into an ExclusionMode
func ParseExclusionMode(s string) (ExclusionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mask":
		return ExclusionMask, nil
	case "sentinel", "zero":
		return ExclusionSentinel, nil
	default:
		return 0, fmt.Errorf("unknown exclusion mode %q (must be mask or sentinel)", s)
	}
}

// Options controls outlier rejection and annulus exclusion
type Options struct {
	// Sigma is the clipping threshold in standard deviations
	Sigma float64

	// Iterations is the maximum number of clipping passes
	Iterations int

	// Exclusion selects how annulus holes are cut out
	Exclusion ExclusionMode

	// Logger receives per-region debug output; the standard logger is used when nil
	Logger logrus.FieldLogger
}

// DefaultOptions returns 3-sigma, single-pass clipping with mask exclusion
func DefaultOptions() Options {
	return Options{
		Sigma:      3.0,
		Iterations: 1,
		Exclusion:  ExclusionMask,
	}
}

// Result is the outcome for one region
type Result struct {
	Stats models.RegionStatistics

	// Values are the samples that survived clipping, in extraction order
	Values []float64
}

// Engine runs region statistics over images. It holds no per-run state
// and may be shared between goroutines.
type Engine struct {
	opts Options
	log  logrus.FieldLogger
}

// NewEngine creates an engine with the given options
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Iterations < 0 {
		opts.Iterations = 0
	}
	return &Engine{opts: opts, log: log}
}

// Options returns the options the engine was created with
func (e *Engine) Options() Options {
	return e.opts
}

// Run computes the statistics of every region, preserving record order
func (e *Engine) Run(img *models.Image, rects []models.RectanglePair) ([]models.RegionStatistics, error) {
	results, err := e.Analyze(img, rects)
	if err != nil {
		return nil, err
	}

	stats := make([]models.RegionStatistics, len(results))
	for i, r := range results {
		stats[i] = r.Stats
	}
	return stats, nil
}

// Analyze is Run that also returns the clipped samples of every region
func (e *Engine) Analyze(img *models.Image, rects []models.RectanglePair) ([]Result, error) {
	shape, err := ClassifyShape(rects)
	if err != nil {
		return nil, err
	}

	regions, err := e.ExtractRegions(img, rects, shape)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(regions))
	for i, region := range regions {
		clipped := e.RejectOutliers(region)

		stats, err := ComputeStatistics(clipped)
		if err != nil {
			bounds := rects[i].Inner
			if shape == models.ShapeAnnulus {
				bounds = rects[i].Outer
			}
			return nil, &EmptyRegionError{Region: i, Shape: shape, Bounds: bounds}
		}
		stats.Region = i

		e.log.WithFields(logrus.Fields{
			"region":  i,
			"shape":   shape.String(),
			"raw":     len(region),
			"clipped": len(region) - len(clipped),
		}).Debug("Computed region statistics")

		results[i] = Result{Stats: stats, Values: clipped}
	}

	return results, nil
}

// ClassifyShape returns ShapeBox when every outer box in the list is
// all zero, and ShapeAnnulus otherwise
func ClassifyShape(rects []models.RectanglePair) (models.RegionShape, error) {
	if len(rects) == 0 {
		return 0, invalid(-1, "no rectangle records")
	}

	for _, r := range rects {
		if !r.Outer.IsZero() {
			return models.ShapeAnnulus, nil
		}
	}
	return models.ShapeBox, nil
}

// ExtractRegions cuts the raw samples of every record out of img.
// Box regions come back in row-major order; annulus regions hold the
// outer box samples, in row-major order, that are not inside any
// record's inner box. img is never modified.
func (e *Engine) ExtractRegions(img *models.Image, rects []models.RectanglePair, shape models.RegionShape) ([][]float64, error) {
	if err := Validate(img, rects); err != nil {
		return nil, err
	}

	regions := make([][]float64, len(rects))

	switch shape {
	case models.ShapeBox:
		for i, r := range rects {
			regions[i] = img.Section(r.Inner)
		}

	case models.ShapeAnnulus:
		switch e.opts.Exclusion {
		case ExclusionSentinel:
			extractSentinel(img, rects, regions)
		default:
			extractMasked(img, rects, regions)
		}

	default:
		return nil, invalid(-1, "unknown region shape %d", int(shape))
	}

	return regions, nil
}

// extractMasked excludes inner boxes through a boolean mask
func extractMasked(img *models.Image, rects []models.RectanglePair, regions [][]float64) {
	excluded := make([]bool, len(img.Data))
	for _, r := range rects {
		for y := r.Inner.Y1; y < r.Inner.Y2; y++ {
			for x := r.Inner.X1; x < r.Inner.X2; x++ {
				excluded[y*img.Width+x] = true
			}
		}
	}

	for i, r := range rects {
		values := make([]float64, 0, r.Outer.Area())
		for y := r.Outer.Y1; y < r.Outer.Y2; y++ {
			for x := r.Outer.X1; x < r.Outer.X2; x++ {
				idx := y*img.Width + x
				if !excluded[idx] {
					values = append(values, img.Data[idx])
				}
			}
		}
		regions[i] = values
	}
}

// extractSentinel zeroes inner boxes on a copy and drops all zero samples
func extractSentinel(img *models.Image, rects []models.RectanglePair, regions [][]float64) {
	work := img.Clone()
	for _, r := range rects {
		work.Fill(r.Inner, 0)
	}

	for i, r := range rects {
		section := work.Section(r.Outer)
		values := section[:0]
		for _, v := range section {
			if v != 0 {
				values = append(values, v)
			}
		}
		regions[i] = values
	}
}

// RejectOutliers sigma-clips one region using the engine options
func (e *Engine) RejectOutliers(region []float64) []float64 {
	return SigmaClip(region, e.opts.Sigma, e.opts.Iterations)
}

// Validate checks the image and every record against it. A box that is
// all zero is the unused sentinel and is not checked.
func Validate(img *models.Image, rects []models.RectanglePair) error {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return invalid(-1, "image must have positive dimensions")
	}
	if len(img.Data) != img.Width*img.Height {
		return invalid(-1, "image has %d samples, want %dx%d", len(img.Data), img.Width, img.Height)
	}
	if len(rects) == 0 {
		return invalid(-1, "no rectangle records")
	}

	for i, r := range rects {
		if err := validateBox(img, i, "box1", r.Inner); err != nil {
			return err
		}
		if err := validateBox(img, i, "box2", r.Outer); err != nil {
			return err
		}
	}
	return nil
}

func validateBox(img *models.Image, record int, which string, b models.Box) error {
	if b.IsZero() {
		return nil
	}

	var reason string
	switch {
	case b.X1 < 0 || b.X2 < 0 || b.Y1 < 0 || b.Y2 < 0:
		reason = "negative bound"
	case b.X1 > b.X2:
		reason = "x1 > x2"
	case b.Y1 > b.Y2:
		reason = "y1 > y2"
	case !img.Contains(b):
		reason = fmt.Sprintf("box extends outside %dx%d image", img.Width, img.Height)
	default:
		return nil
	}

	return &InvalidInputError{Record: record, Which: which, Bounds: b, Reason: reason}
}
