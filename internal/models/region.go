package models

import (
	"fmt"
)

// Box is a rectangle of half-open index ranges [X1,X2) x [Y1,Y2).
// The all-zero Box marks an unused rectangle.
type Box struct {
	X1, X2 int
	Y1, Y2 int
}

// IsZero reports whether every bound is zero
func (b Box) IsZero() bool {
	return b == Box{}
}

// Dx returns the width of the box
func (b Box) Dx() int {
	return b.X2 - b.X1
}

// Dy returns the height of the box
func (b Box) Dy() int {
	return b.Y2 - b.Y1
}

// Area returns the number of pixels covered by the box
func (b Box) Area() int {
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return 0
	}
	return b.Dx() * b.Dy()
}

func (b Box) String() string {
	return fmt.Sprintf("[x %d:%d, y %d:%d]", b.X1, b.X2, b.Y1, b.Y2)
}

// RectanglePair is one record of a coordinate file
type RectanglePair struct {
	// Inner is box 1: the whole region for a box, the excluded hole for an annulus
	Inner Box

	// Outer is box 2: the outer edge of an annulus, or all zero when unused
	Outer Box
}

// RegionShape classifies how regions are cut out of the image
type RegionShape int

const (
	ShapeBox RegionShape = iota
	ShapeAnnulus
)

func (s RegionShape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeAnnulus:
		return "annulus"
	default:
		return "unknown"
	}
}

// RegionStatistics holds the descriptive statistics of one region
type RegionStatistics struct {
	// Region is the index of the coordinate record the statistics belong to
	Region int

	// PixelCount is the number of samples left after outlier rejection
	PixelCount int

	Mean   float64
	Median float64

	// StdDev is the population standard deviation (divides by N)
	StdDev float64

	Min float64
	Max float64
}
