package models

import (
	"fmt"
)

// Image represents a single 2-D calibration image held in memory
type Image struct {
	// Data is the pixel data as a 1D array in row-major order,
	// so the sample at column x, row y is Data[y*Width+x]
	Data []float64

	// Width is the number of columns (NAXIS1 of the source file)
	Width int

	// Height is the number of rows (NAXIS2 of the source file)
	Height int
}

// NewImage allocates a zero-filled image of the given dimensions
func NewImage(width, height int) *Image {
	return &Image{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// NewImageFromRows builds an image from a slice of equally long rows.
// It panics if the rows are ragged.
func NewImageFromRows(rows [][]float64) *Image {
	if len(rows) == 0 {
		return &Image{}
	}

	img := NewImage(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != img.Width {
			panic(fmt.Sprintf("models: row %d has %d columns, want %d", y, len(row), img.Width))
		}
		copy(img.Data[y*img.Width:], row)
	}
	return img
}

// At returns the sample at column x, row y
func (img *Image) At(x, y int) float64 {
	return img.Data[y*img.Width+x]
}

// Set stores v at column x, row y
func (img *Image) Set(x, y int, v float64) {
	img.Data[y*img.Width+x] = v
}

// Clone returns a deep copy of the image
func (img *Image) Clone() *Image {
	data := make([]float64, len(img.Data))
	copy(data, img.Data)
	return &Image{Data: data, Width: img.Width, Height: img.Height}
}

// Contains reports whether b lies entirely within the image
func (img *Image) Contains(b Box) bool {
	return b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= img.Width && b.Y2 <= img.Height
}

// Section copies the samples inside b in row-major order.
// The box must lie within the image.
func (img *Image) Section(b Box) []float64 {
	values := make([]float64, 0, b.Area())
	for y := b.Y1; y < b.Y2; y++ {
		row := img.Data[y*img.Width : (y+1)*img.Width]
		values = append(values, row[b.X1:b.X2]...)
	}
	return values
}

// Fill sets every sample inside b to v
func (img *Image) Fill(b Box, v float64) {
	for y := b.Y1; y < b.Y2; y++ {
		row := img.Data[y*img.Width : (y+1)*img.Width]
		for x := b.X1; x < b.X2; x++ {
			row[x] = v
		}
	}
}
