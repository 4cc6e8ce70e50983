package route

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolyline(t *testing.T) string {
	t.Helper()
	return EncodePolyline([]Point{
		{Lat: 41.0, Lon: -81.0},
		{Lat: 41.01, Lon: -81.01},
	})
}

func TestParseQueryRequiresPolyline(t *testing.T) {
	_, err := ParseQuery(url.Values{"title": {"Morning Ride"}})
	assert.ErrorIs(t, err, ErrBadPolyline)
}

func TestParseQueryOptionalFields(t *testing.T) {
	q := url.Values{
		"polyline": {testPolyline(t)},
		"title":    {"Morning Ride"},
		"distance": {"16093.4"},
		"title2":   {"ignored"},
	}
	req, err := ParseQuery(q)
	require.NoError(t, err)

	require.NotNil(t, req.Title)
	assert.Equal(t, "Morning Ride", *req.Title)
	require.NotNil(t, req.Distance)
	assert.Equal(t, "16093.4", *req.Distance)
	assert.Nil(t, req.Duration)
	assert.Nil(t, req.ElevationGain)
	assert.Nil(t, req.AverageSpeed)
	assert.Nil(t, req.TopSpeed)
}

func TestParseQueryDistinguishesAbsentFromEmpty(t *testing.T) {
	q := url.Values{
		"polyline": {testPolyline(t)},
		"title":    {""},
	}
	req, err := ParseQuery(q)
	require.NoError(t, err)
	require.NotNil(t, req.Title)
	assert.Empty(t, *req.Title)
}

func TestStatLinesFormatting(t *testing.T) {
	duration := "5400"      // 1h30m
	distance := "16093.4"   // ~10 miles
	elevation := "304.8"    // ~1000 ft
	avgSpeed := "12.345"
	topSpeed := "28.9"
	req := &Request{
		Duration:      &duration,
		Distance:      &distance,
		ElevationGain: &elevation,
		AverageSpeed:  &avgSpeed,
		TopSpeed:      &topSpeed,
	}

	lines := req.StatLines()
	require.Len(t, lines, 5)
	assert.Equal(t, StatLine{"Duration", "1 hour, 30 minute"}, lines[0])
	assert.Equal(t, StatLine{"Distance", "10.0 mi"}, lines[1])
	assert.Equal(t, StatLine{"Elevation Gain", "1000.0 ft"}, lines[2])
	assert.Equal(t, StatLine{"Avg Speed", "12.3 mph"}, lines[3])
	assert.Equal(t, StatLine{"Top Speed", "28.9 mph"}, lines[4])
}

func TestStatLinesEmptyWhenNoStats(t *testing.T) {
	title := "Just a title"
	req := &Request{Title: &title}
	assert.Empty(t, req.StatLines())
}

func TestStatLinesShortDuration(t *testing.T) {
	duration := "1500" // 25 minutes
	req := &Request{Duration: &duration}
	lines := req.StatLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "25 minute", lines[0].Value)
}
