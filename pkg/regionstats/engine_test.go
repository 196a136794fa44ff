package regionstats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bourque/wfc3-tools/internal/models"
)

// createUniformImage creates a width x height image filled with v
func createUniformImage(width, height int, v float64) *models.Image {
	img := models.NewImage(width, height)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

// createGradientImage creates an image whose sample at (x, y) is y*10+x
func createGradientImage(width, height int) *models.Image {
	img := models.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, float64(y*10+x))
		}
	}
	return img
}

func box(x1, x2, y1, y2 int) models.Box {
	return models.Box{X1: x1, X2: x2, Y1: y1, Y2: y2}
}

func TestClassifyShape(t *testing.T) {
	t.Run("AllOuterZero", func(t *testing.T) {
		rects := []models.RectanglePair{
			{Inner: box(0, 2, 0, 2)},
			{Inner: box(3, 5, 1, 4)},
		}
		shape, err := ClassifyShape(rects)
		require.NoError(t, err)
		assert.Equal(t, models.ShapeBox, shape)
	})

	t.Run("SingleNonZeroOuterField", func(t *testing.T) {
		for field := 0; field < 4; field++ {
			outer := models.Box{}
			switch field {
			case 0:
				outer.X1 = 1
			case 1:
				outer.X2 = 1
			case 2:
				outer.Y1 = 1
			case 3:
				outer.Y2 = 1
			}
			rects := []models.RectanglePair{
				{Inner: box(0, 2, 0, 2)},
				{Inner: box(0, 2, 0, 2)},
				{Inner: box(0, 2, 0, 2), Outer: outer},
			}
			shape, err := ClassifyShape(rects)
			require.NoError(t, err)
			assert.Equal(t, models.ShapeAnnulus, shape, "outer field %d", field)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ClassifyShape(nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestExtractBox(t *testing.T) {
	img := models.NewImageFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	engine := NewEngine(DefaultOptions())

	regions, err := engine.ExtractRegions(img, []models.RectanglePair{{Inner: box(0, 2, 0, 2)}}, models.ShapeBox)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, []float64{1, 2, 4, 5}, regions[0])
}

func TestExtractAnnulus(t *testing.T) {
	rects := []models.RectanglePair{{Inner: box(2, 4, 2, 4), Outer: box(0, 6, 0, 6)}}

	for _, mode := range []ExclusionMode{ExclusionMask, ExclusionSentinel} {
		t.Run(mode.String(), func(t *testing.T) {
			img := createUniformImage(10, 10, 5)
			opts := DefaultOptions()
			opts.Exclusion = mode
			engine := NewEngine(opts)

			regions, err := engine.ExtractRegions(img, rects, models.ShapeAnnulus)
			require.NoError(t, err)
			require.Len(t, regions, 1)
			assert.Len(t, regions[0], 36-4)
			for _, v := range regions[0] {
				assert.Equal(t, 5.0, v)
			}

			// The caller's image must be left untouched
			for i, v := range img.Data {
				require.Equal(t, 5.0, v, "sample %d modified", i)
			}
		})
	}
}

func TestExtractAnnulusOverlappingRecords(t *testing.T) {
	img := createUniformImage(10, 10, 5)
	rects := []models.RectanglePair{
		{Inner: box(1, 2, 1, 2), Outer: box(0, 3, 0, 3)},
		{Inner: box(2, 3, 2, 3), Outer: box(2, 5, 2, 5)},
	}

	for _, mode := range []ExclusionMode{ExclusionMask, ExclusionSentinel} {
		opts := DefaultOptions()
		opts.Exclusion = mode
		regions, err := NewEngine(opts).ExtractRegions(img, rects, models.ShapeAnnulus)
		require.NoError(t, err)

		// Record 1's inner box also lies inside record 0's outer box
		assert.Len(t, regions[0], 9-2, mode.String())
		assert.Len(t, regions[1], 9-1, mode.String())
	}
}

func TestSentinelDropsGenuineZeros(t *testing.T) {
	img := createUniformImage(10, 10, 5)
	img.Set(0, 0, 0)
	rects := []models.RectanglePair{{Inner: box(2, 4, 2, 4), Outer: box(0, 6, 0, 6)}}

	masked, err := NewEngine(DefaultOptions()).ExtractRegions(img, rects, models.ShapeAnnulus)
	require.NoError(t, err)
	assert.Len(t, masked[0], 32, "mask keeps the zero-valued sample")
	assert.Contains(t, masked[0], 0.0)

	opts := DefaultOptions()
	opts.Exclusion = ExclusionSentinel
	legacy, err := NewEngine(opts).ExtractRegions(img, rects, models.ShapeAnnulus)
	require.NoError(t, err)
	assert.Len(t, legacy[0], 31, "sentinel mode cannot tell a real zero from an excluded pixel")
	assert.NotContains(t, legacy[0], 0.0)
}

func TestRunUniformRegion(t *testing.T) {
	img := createUniformImage(10, 10, 5)
	stats, err := NewEngine(DefaultOptions()).Run(img, []models.RectanglePair{
		{Inner: box(2, 4, 2, 4), Outer: box(0, 6, 0, 6)},
	})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 0, s.Region)
	assert.Equal(t, 32, s.PixelCount)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 5.0, s.Median)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 0.0, s.StdDev)
}

func TestRunPreservesOrder(t *testing.T) {
	img := createGradientImage(10, 10)
	rects := []models.RectanglePair{
		{Inner: box(0, 1, 0, 1)},
		{Inner: box(2, 4, 0, 2)},
		{Inner: box(0, 3, 5, 6)},
	}

	stats, err := NewEngine(DefaultOptions()).Run(img, rects)
	require.NoError(t, err)
	require.Len(t, stats, len(rects))

	expected := []struct {
		count int
		mean  float64
	}{
		{1, 0},
		{4, 7.5},
		{3, 51},
	}
	for i, want := range expected {
		assert.Equal(t, i, stats[i].Region)
		assert.Equal(t, want.count, stats[i].PixelCount, "region %d", i)
		assert.InDelta(t, want.mean, stats[i].Mean, 1e-12, "region %d", i)
	}
}

func TestRunMixedRecordsUseAnnulusForAll(t *testing.T) {
	img := createUniformImage(10, 10, 5)
	rects := []models.RectanglePair{
		{Inner: box(0, 2, 0, 2)},
		{Inner: box(2, 4, 2, 4), Outer: box(0, 6, 0, 6)},
	}

	// Record 0 has no outer box, so its annulus is empty
	_, err := NewEngine(DefaultOptions()).Run(img, rects)
	require.Error(t, err)

	var emptyErr *EmptyRegionError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 0, emptyErr.Region)
	assert.Equal(t, models.ShapeAnnulus, emptyErr.Shape)
}

func TestRunEmptyRegion(t *testing.T) {
	t.Run("ZeroWidthBox", func(t *testing.T) {
		img := createUniformImage(10, 10, 5)
		rects := []models.RectanglePair{
			{Inner: box(0, 2, 0, 2)},
			{Inner: box(3, 3, 0, 2)},
		}

		_, err := NewEngine(DefaultOptions()).Run(img, rects)
		assert.True(t, errors.Is(err, ErrEmptyRegion))

		var emptyErr *EmptyRegionError
		require.True(t, errors.As(err, &emptyErr))
		assert.Equal(t, 1, emptyErr.Region)
		assert.Equal(t, box(3, 3, 0, 2), emptyErr.Bounds)
	})

	t.Run("AnnulusFullyExcluded", func(t *testing.T) {
		img := createUniformImage(10, 10, 5)
		rects := []models.RectanglePair{{Inner: box(0, 6, 0, 6), Outer: box(1, 5, 1, 5)}}

		_, err := NewEngine(DefaultOptions()).Run(img, rects)
		assert.True(t, errors.Is(err, ErrEmptyRegion))
	})
}

func TestValidate(t *testing.T) {
	img := createUniformImage(10, 10, 1)

	tests := []struct {
		name   string
		rects  []models.RectanglePair
		record int
		which  string
	}{
		{"OutsideImage", []models.RectanglePair{{Inner: box(0, 2, 0, 2)}, {Inner: box(0, 2, 0, 2), Outer: box(0, 11, 0, 5)}}, 1, "box2"},
		{"ReversedX", []models.RectanglePair{{Inner: box(4, 2, 0, 2)}}, 0, "box1"},
		{"ReversedY", []models.RectanglePair{{Inner: box(0, 2, 5, 1)}}, 0, "box1"},
		{"Negative", []models.RectanglePair{{Inner: box(-1, 2, 0, 2)}}, 0, "box1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(img, tc.rects)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var invalidErr *InvalidInputError
			require.True(t, errors.As(err, &invalidErr))
			assert.Equal(t, tc.record, invalidErr.Record)
			assert.Equal(t, tc.which, invalidErr.Which)
		})
	}

	t.Run("EmptyImage", func(t *testing.T) {
		err := Validate(&models.Image{}, []models.RectanglePair{{Inner: box(0, 1, 0, 1)}})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("NoRecords", func(t *testing.T) {
		_, err := NewEngine(DefaultOptions()).Run(img, nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestParseExclusionMode(t *testing.T) {
	mode, err := ParseExclusionMode("Sentinel")
	require.NoError(t, err)
	assert.Equal(t, ExclusionSentinel, mode)

	mode, err = ParseExclusionMode("")
	require.NoError(t, err)
	assert.Equal(t, ExclusionMask, mode)

	_, err = ParseExclusionMode("bogus")
	assert.Error(t, err)
}

func TestRunEverySampleClipped(t *testing.T) {
	img := models.NewImageFromRows([][]float64{{0, 10}})
	opts := DefaultOptions()
	opts.Sigma = 0.5

	// Both samples lie one standard deviation from the mean
	_, err := NewEngine(opts).Run(img, []models.RectanglePair{{Inner: box(0, 2, 0, 1)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyRegion))

	var emptyErr *EmptyRegionError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 0, emptyErr.Region)
	assert.Equal(t, models.ShapeBox, emptyErr.Shape)
	assert.Equal(t, box(0, 2, 0, 1), emptyErr.Bounds)

	// The default 3-sigma clip keeps both
	stats, err := NewEngine(DefaultOptions()).Run(img, []models.RectanglePair{{Inner: box(0, 2, 0, 1)}})
	require.NoError(t, err)
	assert.Equal(t, 2, stats[0].PixelCount)
}
