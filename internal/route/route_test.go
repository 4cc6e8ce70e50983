package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolylineRoundTrip(t *testing.T) {
	points := []Point{
		{Lat: 41.0, Lon: -81.0},
		{Lat: 41.01, Lon: -81.01},
		{Lat: 40.99, Lon: -81.02},
	}

	encoded := EncodePolyline(points)
	require.NotEmpty(t, encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	assert.Equal(t, points, decoded)
}

func TestDecodePolylineTrimsWhitespace(t *testing.T) {
	points := []Point{{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}}
	encoded := EncodePolyline(points)

	decoded, err := DecodePolyline("  " + encoded + "\n")
	require.NoError(t, err)
	assert.Equal(t, points, decoded)
}

func TestDecodePolylineRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\x01"} {
		_, err := DecodePolyline(input)
		assert.ErrorIs(t, err, ErrBadPolyline, "input %q", input)
	}
}

func TestMedianCenterOddCount(t *testing.T) {
	points := []Point{
		{Lat: 1, Lon: 30},
		{Lat: 3, Lon: 10},
		{Lat: 2, Lon: 20},
	}
	assert.Equal(t, Point{Lat: 2, Lon: 20}, MedianCenter(points))
}

func TestMedianCenterEvenCount(t *testing.T) {
	points := []Point{
		{Lat: 1, Lon: 10},
		{Lat: 2, Lon: 20},
	}
	assert.Equal(t, Point{Lat: 1.5, Lon: 15}, MedianCenter(points))
}

func TestMedianCenterResistsOutlier(t *testing.T) {
	// A single GPS jump far from the trail should barely move the center.
	points := []Point{
		{Lat: 41.00, Lon: -81.00},
		{Lat: 41.01, Lon: -81.01},
		{Lat: 41.02, Lon: -81.02},
		{Lat: 41.01, Lon: -81.00},
		{Lat: 50.00, Lon: -120.00},
	}
	center := MedianCenter(points)
	assert.InDelta(t, 41.01, center.Lat, 0.01)
	assert.InDelta(t, -81.01, center.Lon, 0.01)
}

func TestMedianCenterDoesNotMutateInput(t *testing.T) {
	points := []Point{{Lat: 3, Lon: 3}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	MedianCenter(points)
	assert.Equal(t, []Point{{Lat: 3, Lon: 3}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}, points)
}
