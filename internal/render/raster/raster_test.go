package raster

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trail-map-service/internal/route"
)

func renderOnce(t *testing.T, req *route.Request) []byte {
	t.Helper()
	engine := NewEngine(Config{Width: 240, Height: 240})
	s, err := engine.NewSession(context.Background())
	require.NoError(t, err)
	defer s.Close(context.Background())

	require.NoError(t, s.Submit(context.Background(), req))
	img, err := s.AwaitReady(context.Background())
	require.NoError(t, err)
	return img
}

func TestRenderProducesDecodablePNG(t *testing.T) {
	img := renderOnce(t, &route.Request{Points: []route.Point{
		{Lat: 41.0, Lon: -81.0},
		{Lat: 41.01, Lon: -81.01},
		{Lat: 40.99, Lon: -81.02},
	}})

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 240, decoded.Bounds().Dx())
	assert.Equal(t, 240, decoded.Bounds().Dy())
}

func TestRenderWithOverlay(t *testing.T) {
	title := "Morning Ride"
	distance := "16093.4"
	img := renderOnce(t, &route.Request{
		Points:   []route.Point{{Lat: 41.0, Lon: -81.0}, {Lat: 41.01, Lon: -81.01}},
		Title:    &title,
		Distance: &distance,
	})

	_, err := png.Decode(bytes.NewReader(img))
	assert.NoError(t, err)
}

func TestRenderSinglePointRoute(t *testing.T) {
	// A degenerate one-point route still draws instead of dividing by a
	// zero span.
	img := renderOnce(t, &route.Request{Points: []route.Point{{Lat: 41.0, Lon: -81.0}}})
	_, err := png.Decode(bytes.NewReader(img))
	assert.NoError(t, err)
}

func TestDifferentRoutesDifferentImages(t *testing.T) {
	a := renderOnce(t, &route.Request{Points: []route.Point{
		{Lat: 41.0, Lon: -81.0}, {Lat: 41.01, Lon: -81.01},
	}})
	b := renderOnce(t, &route.Request{Points: []route.Point{
		{Lat: 41.0, Lon: -81.0}, {Lat: 40.9, Lon: -81.2}, {Lat: 41.05, Lon: -81.1},
	}})
	assert.NotEqual(t, a, b)
}

func TestAwaitWithoutSubmitFails(t *testing.T) {
	engine := NewEngine(Config{})
	s, err := engine.NewSession(context.Background())
	require.NoError(t, err)
	_, err = s.AwaitReady(context.Background())
	assert.Error(t, err)
}
