// Package profile computes average row and column profiles over a
// rectangular section of an image.
package profile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/bourque/wfc3-tools/internal/models"
)

// Kind selects which profiles to produce
type Kind int

const (
	KindRow Kind = iota
	KindColumn
	KindBoth
)

// ParseKind accepts "row", "col" or "both"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "row":
		return KindRow, nil
	case "col", "column":
		return KindColumn, nil
	case "both":
		return KindBoth, nil
	default:
		return 0, fmt.Errorf("invalid plot type %q (must be row, col or both)", s)
	}
}

// Target names an image extension and the section to average over
type Target struct {
	// Path is the FITS file
	Path string

	// Ext is the HDU index
	Ext int

	// Section is the pixel range; the first range of the target string
	// indexes columns and the second rows
	Section models.Box
}

// Label returns "<file>[<ext>]" for table headers
func (t Target) Label() string {
	return fmt.Sprintf("%s[%d]", t.Path, t.Ext)
}

// ParseTarget parses "file.fits[ext][x1:x2,y1:y2]"
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, "[") != 2 || strings.Count(s, "]") != 2 {
		return Target{}, fmt.Errorf("%q: missing or invalid extension or indices", s)
	}

	open := strings.Index(s, "[")
	path := s[:open]
	rest := s[open:]

	// rest is "[ext][x1:x2,y1:y2]"
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(rest, "["), "]"), "][")
	if path == "" || len(parts) != 2 {
		return Target{}, fmt.Errorf("%q: missing or invalid extension or indices", s)
	}

	ext, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || ext < 0 {
		return Target{}, fmt.Errorf("%q: invalid extension %q", s, parts[0])
	}

	ranges := strings.Split(parts[1], ",")
	if len(ranges) != 2 {
		return Target{}, fmt.Errorf("%q: section needs two ranges", s)
	}
	x1, x2, err := parseRange(ranges[0])
	if err != nil {
		return Target{}, fmt.Errorf("%q: %w", s, err)
	}
	y1, y2, err := parseRange(ranges[1])
	if err != nil {
		return Target{}, fmt.Errorf("%q: %w", s, err)
	}

	return Target{
		Path:    path,
		Ext:     ext,
		Section: models.Box{X1: x1, X2: x2, Y1: y1, Y2: y2},
	}, nil
}

func parseRange(s string) (int, int, error) {
	bounds := strings.Split(strings.TrimSpace(s), ":")
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	if lo < 0 || hi <= lo {
		return 0, 0, fmt.Errorf("empty or reversed range %q", s)
	}
	return lo, hi, nil
}

// ReadTargets returns the single target named by arg when it refers to a
// FITS file, or every target listed one per line in the text file arg
func ReadTargets(arg string) ([]Target, error) {
	if strings.Contains(arg, ".fits") {
		t, err := ParseTarget(arg)
		if err != nil {
			return nil, err
		}
		return []Target{t}, nil
	}

	f, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("error opening image list: %w", err)
	}
	defer f.Close()

	var targets []Target
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := ParseTarget(line)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading image list: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no images listed in %s", arg)
	}
	return targets, nil
}

func checkSection(img *models.Image, b models.Box) error {
	if b.Area() == 0 || !img.Contains(b) {
		return fmt.Errorf("section %s does not fit in %dx%d image", b, img.Width, img.Height)
	}
	return nil
}

// RowAverages returns, for each row of the section, the mean across its columns
func RowAverages(img *models.Image, b models.Box) ([]float64, error) {
	if err := checkSection(img, b); err != nil {
		return nil, err
	}

	avg := make([]float64, 0, b.Dy())
	for y := b.Y1; y < b.Y2; y++ {
		row := img.Data[y*img.Width+b.X1 : y*img.Width+b.X2]
		avg = append(avg, stat.Mean(row, nil))
	}
	return avg, nil
}

// ColumnAverages returns, for each column of the section, the mean down its rows
func ColumnAverages(img *models.Image, b models.Box) ([]float64, error) {
	if err := checkSection(img, b); err != nil {
		return nil, err
	}

	column := make([]float64, b.Dy())
	avg := make([]float64, 0, b.Dx())
	for x := b.X1; x < b.X2; x++ {
		for y := b.Y1; y < b.Y2; y++ {
			column[y-b.Y1] = img.At(x, y)
		}
		avg = append(avg, stat.Mean(column, nil))
	}
	return avg, nil
}
