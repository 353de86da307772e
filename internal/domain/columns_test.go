package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateColumnsValidate(t *testing.T) {
	tests := []struct {
		name       string
		cols       CoordinateColumns
		wantColumn string
	}{
		{
			name: "equal lengths",
			cols: CoordinateColumns{
				Lon0: []float64{1, 2, 3},
				Lat0: []float64{1, 2, 3},
				Lon1: []float64{1, 2, 3},
				Lat1: []float64{1, 2, 3},
			},
		},
		{
			name: "empty",
			cols: CoordinateColumns{},
		},
		{
			name: "lat1 longer",
			cols: CoordinateColumns{
				Lon0: []float64{1, 2, 3},
				Lat0: []float64{1, 2, 3},
				Lon1: []float64{1, 2, 3},
				Lat1: []float64{1, 2, 3, 4},
			},
			wantColumn: ColLat1,
		},
		{
			name: "lat0 shorter",
			cols: CoordinateColumns{
				Lon0: []float64{1, 2, 3},
				Lat0: []float64{1},
				Lon1: []float64{1, 2, 3},
				Lat1: []float64{1, 2, 3},
			},
			wantColumn: ColLat0,
		},
		{
			name: "validity mask mismatch",
			cols: CoordinateColumns{
				Lon0:  []float64{1, 2},
				Lat0:  []float64{1, 2},
				Lon1:  []float64{1, 2},
				Lat1:  []float64{1, 2},
				Valid: []bool{true},
			},
			wantColumn: "validity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cols.Validate()
			if tt.wantColumn == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLengthMismatch))

			var lm *LengthMismatchError
			require.True(t, errors.As(err, &lm))
			assert.Equal(t, tt.wantColumn, lm.Column)
		})
	}
}

func TestColumnsFromPairs(t *testing.T) {
	pairs := []PointPair{
		{X0: 1, Y0: 2, X1: 3, Y1: 4},
		{X0: 5, Y0: 6, X1: 7, Y1: 8},
	}

	cols := ColumnsFromPairs(pairs)
	require.NoError(t, cols.Validate())
	assert.Equal(t, 2, cols.Len())
	assert.Equal(t, []float64{1, 5}, cols.Lon0)
	assert.Equal(t, []float64{2, 6}, cols.Lat0)
	assert.Equal(t, []float64{3, 7}, cols.Lon1)
	assert.Equal(t, []float64{4, 8}, cols.Lat1)

	row, err := cols.Row(1)
	require.NoError(t, err)
	assert.Equal(t, pairs[1], row)
	assert.Equal(t, Coordinates{Lon: 5, Lat: 6}, row.From())
	assert.Equal(t, Coordinates{Lon: 7, Lat: 8}, row.To())

	_, err = cols.Row(2)
	assert.Error(t, err)
}

func TestDistanceColumnMean(t *testing.T) {
	mean, ok := DistanceColumn{Values: []float64{1, 2, 3}}.Mean()
	assert.True(t, ok)
	assert.InDelta(t, 2.0, mean, 1e-12)

	// Null rows are skipped, not counted as zero.
	mean, ok = DistanceColumn{Values: []float64{10, 0, 20}, Valid: []bool{true, false, true}}.Mean()
	assert.True(t, ok)
	assert.InDelta(t, 15.0, mean, 1e-12)

	_, ok = DistanceColumn{}.Mean()
	assert.False(t, ok)

	_, ok = DistanceColumn{Values: []float64{0}, Valid: []bool{false}}.Mean()
	assert.False(t, ok)
}

func TestParseNullPolicy(t *testing.T) {
	p, err := ParseNullPolicy("")
	require.NoError(t, err)
	assert.Equal(t, NullReject, p)

	p, err = ParseNullPolicy(" Propagate ")
	require.NoError(t, err)
	assert.Equal(t, NullPropagate, p)
	assert.Equal(t, "propagate", p.String())

	_, err = ParseNullPolicy("zero")
	assert.Error(t, err)
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, &ConversionError{Column: ColLon0, Type: "utf8"}, ErrInputConversion)
	assert.ErrorIs(t, &NullValueError{Column: ColLat1, Index: 3}, ErrNullValue)
	assert.ErrorIs(t, &LengthMismatchError{Column: ColLat1, Want: 3, Got: 4}, ErrLengthMismatch)
	assert.NotErrorIs(t, &NullValueError{}, ErrInputConversion)

	assert.Equal(t,
		`input contains null value: column "lat1" at index 3`,
		(&NullValueError{Column: ColLat1, Index: 3}).Error(),
	)
}

func TestMergeValidity(t *testing.T) {
	assert.Nil(t, MergeValidity(3, nil, nil))

	a := []bool{true, false, true}
	got := MergeValidity(3, nil, a)
	assert.Equal(t, a, got)
	got[0] = false
	assert.True(t, a[0], "merged validity must not alias its input")

	got = MergeValidity(3, []bool{true, true, false}, nil, []bool{false, true, true})
	assert.Equal(t, []bool{false, true, false}, got)
}

func TestMissingColumnError(t *testing.T) {
	err := &MissingColumnError{Column: "lon9"}
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Equal(t, `input column not found: "lon9"`, err.Error())
}
