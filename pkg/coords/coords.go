// Package coords reads rectangle coordinate files.
//
// Each non-blank line holds eight numbers separated by whitespace or commas:
//
//	box1x1 box1x2 box1y1 box1y2 box2x1 box2x2 box2y1 box2y2
//
// Lines starting with '#' are comments. Box 2 is all zero when a record
// describes a plain box.
package coords

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/bourque/wfc3-tools/internal/models"
	"github.com/bourque/wfc3-tools/pkg/regionstats"
)

// FieldNames lists the record columns in file order
var FieldNames = []string{
	"box1x1", "box1x2", "box1y1", "box1y2",
	"box2x1", "box2x2", "box2y1", "box2y2",
}

// ParseFile reads the coordinate records in path
func ParseFile(path string) ([]models.RectanglePair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening coordinate file: %w", err)
	}
	defer f.Close()

	rects, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rects, nil
}

// Parse reads coordinate records from r. Malformed records and an input
// without records are reported as *regionstats.InvalidInputError.
func Parse(r io.Reader) ([]models.RectanglePair, error) {
	var rects []models.RectanglePair

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rect, err := parseRecord(line, len(rects), lineNo)
		if err != nil {
			return nil, err
		}
		rects = append(rects, rect)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coordinates: %w", err)
	}

	if len(rects) == 0 {
		return nil, &regionstats.InvalidInputError{Record: -1, Reason: "no rectangle records"}
	}
	return rects, nil
}

func parseRecord(line string, record, lineNo int) (models.RectanglePair, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) != len(FieldNames) {
		return models.RectanglePair{}, &regionstats.InvalidInputError{
			Record: record,
			Line:   lineNo,
			Reason: fmt.Sprintf("expected %d fields, got %d", len(FieldNames), len(fields)),
		}
	}

	values := make([]int, len(fields))
	for i, field := range fields {
		v, err := parseBound(field)
		if err != nil {
			return models.RectanglePair{}, &regionstats.InvalidInputError{
				Record: record,
				Line:   lineNo,
				Reason: fmt.Sprintf("%s: %v", FieldNames[i], err),
			}
		}
		values[i] = v
	}

	return models.RectanglePair{
		Inner: models.Box{X1: values[0], X2: values[1], Y1: values[2], Y2: values[3]},
		Outer: models.Box{X1: values[4], X2: values[5], Y1: values[6], Y2: values[7]},
	}, nil
}

// parseBound accepts integers and integral floats such as "3.0"
func parseBound(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole pixel index", s)
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}
