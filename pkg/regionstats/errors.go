package regionstats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bourque/wfc3-tools/internal/models"
)

var (
	// ErrInvalidInput matches every *InvalidInputError via errors.Is
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyRegion matches every *EmptyRegionError via errors.Is
	ErrEmptyRegion = errors.New("empty region")
)

// InvalidInputError reports a rejected image or coordinate record.
// Record is -1 when the problem is not tied to a single record.
type InvalidInputError struct {
	Record int
	Line   int    // source line of the record, 0 when unknown
	Which  string // "box1", "box2" or ""
	Bounds models.Box
	Reason string
}

func (e *InvalidInputError) Error() string {
	var b strings.Builder
	b.WriteString("invalid input")
	if e.Record >= 0 {
		fmt.Fprintf(&b, ": record %d", e.Record)
		if e.Line > 0 {
			fmt.Fprintf(&b, " (line %d)", e.Line)
		}
	}
	if e.Which != "" {
		fmt.Fprintf(&b, ": %s %s", e.Which, e.Bounds)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	return b.String()
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// EmptyRegionError reports a region with no samples left to summarize
type EmptyRegionError struct {
	Region int
	Shape  models.RegionShape
	Bounds models.Box
}

func (e *EmptyRegionError) Error() string {
	if e.Region < 0 {
		return "empty region: no samples to compute statistics on"
	}
	return fmt.Sprintf("empty region: region %d (%s %s) has no samples left after clipping",
		e.Region, e.Shape, e.Bounds)
}

func (e *EmptyRegionError) Is(target error) bool {
	return target == ErrEmptyRegion
}

func invalid(record int, reason string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Record: record, Reason: fmt.Sprintf(reason, args...)}
}
