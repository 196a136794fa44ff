package coords

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bourque/wfc3-tools/internal/models"
	"github.com/bourque/wfc3-tools/pkg/regionstats"
)

func TestParse(t *testing.T) {
	input := `#box1x1 box1x2 box1y1 box1y2 box2x1 box2x2 box2y1 box2y2
1 3 2 4 0 5 1 5

12.0, 14.0, 6, 9, 0, 0, 0, 0
`
	rects, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rects, 2)

	assert.Equal(t, models.RectanglePair{
		Inner: models.Box{X1: 1, X2: 3, Y1: 2, Y2: 4},
		Outer: models.Box{X1: 0, X2: 5, Y1: 1, Y2: 5},
	}, rects[0])
	assert.Equal(t, models.Box{X1: 12, X2: 14, Y1: 6, Y2: 9}, rects[1].Inner)
	assert.True(t, rects[1].Outer.IsZero())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		record int
		line   int
	}{
		{"TooFewFields", "1 2 3 4 5 6 7\n", 0, 1},
		{"NonNumeric", "0 2 0 2 0 0 0 0\n1 x 3 4 0 0 0 0\n", 1, 2},
		{"Fractional", "# header\n12.5 13.5 6 9 0 10 0 10\n", 0, 2},
		{"Empty", "# nothing here\n\n", -1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, regionstats.ErrInvalidInput))

			var invalidErr *regionstats.InvalidInputError
			require.True(t, errors.As(err, &invalidErr))
			assert.Equal(t, tc.record, invalidErr.Record)
			assert.Equal(t, tc.line, invalidErr.Line)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coords.dat")
	require.NoError(t, os.WriteFile(path, []byte("0 2 0 2 0 0 0 0\n"), 0644))

	rects, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, rects, 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.dat"))
	assert.Error(t, err)
}
