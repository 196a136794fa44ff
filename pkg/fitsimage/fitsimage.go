// Package fitsimage loads 2-D FITS image extensions into models.Image.
package fitsimage

import (
	"fmt"
	"io"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/bourque/wfc3-tools/internal/models"
)

// Load reads image extension ext of the FITS file at path.
// Extension 0 is the primary HDU.
func Load(path string, ext int) (*models.Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening FITS file: %w", err)
	}
	defer r.Close()

	img, err := Decode(r, ext)
	if err != nil {
		return nil, fmt.Errorf("%s[%d]: %w", path, ext, err)
	}
	return img, nil
}

// Decode reads image extension ext from a FITS stream
func Decode(r io.Reader, ext int) (*models.Image, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing FITS stream: %w", err)
	}
	defer f.Close()

	if ext < 0 || ext >= len(f.HDUs()) {
		return nil, fmt.Errorf("extension %d not found (file has %d HDUs)", ext, len(f.HDUs()))
	}

	hdu, ok := f.HDU(ext).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("extension %d is not an image", ext)
	}

	width, height, err := imageShape(hdu.Header().Axes())
	if err != nil {
		return nil, fmt.Errorf("extension %d: %w", ext, err)
	}

	data, err := readPixels(hdu, width*height)
	if err != nil {
		return nil, fmt.Errorf("extension %d: %w", ext, err)
	}

	// True pixel value is BZERO + BSCALE * stored value
	bscale := cardFloat(hdu.Header(), "BSCALE", 1)
	bzero := cardFloat(hdu.Header(), "BZERO", 0)
	if bscale != 1 || bzero != 0 {
		for i, v := range data {
			data[i] = bzero + bscale*v
		}
	}

	return &models.Image{Data: data, Width: width, Height: height}, nil
}

// imageShape returns NAXIS1 and NAXIS2; higher axes must be degenerate
func imageShape(axes []int) (int, int, error) {
	if len(axes) < 2 {
		return 0, 0, fmt.Errorf("expected a 2-D image, got %d axes", len(axes))
	}
	for i, n := range axes[2:] {
		if n != 1 {
			return 0, 0, fmt.Errorf("expected a 2-D image, NAXIS%d is %d", i+3, n)
		}
	}
	if axes[0] <= 0 || axes[1] <= 0 {
		return 0, 0, fmt.Errorf("image has no pixels (%dx%d)", axes[0], axes[1])
	}
	return axes[0], axes[1], nil
}

// readPixels reads n stored values and widens them to float64
func readPixels(hdu fitsio.Image, n int) ([]float64, error) {
	data := make([]float64, n)
	bitpix := hdu.Header().Bitpix()

	switch bitpix {
	case 8:
		raw := make([]uint8, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case -64:
		if err := hdu.Read(&data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	return data, nil
}

// cardFloat returns the numeric value of a header card, or def when absent
func cardFloat(hdr *fitsio.Header, name string, def float64) float64 {
	card := hdr.Get(name)
	if card == nil {
		return def
	}

	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return def
	}
}
