// Package route holds the request model for a map render: the decoded
// route geometry plus the optional ride statistics shown on the overlay.
package route

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-polyline"
)

// ErrBadPolyline marks client input that is missing or does not decode.
var ErrBadPolyline = errors.New("missing or undecodable polyline")

// Point is one route coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// DecodePolyline decodes a Google encoded polyline (precision 5) into an
// ordered point sequence. An empty or partially-consumed input is rejected:
// a truncated polyline would silently draw a different route.
func DecodePolyline(encoded string) ([]Point, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrBadPolyline
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPolyline, err)
	}
	if len(rest) != 0 || len(coords) == 0 {
		return nil, ErrBadPolyline
	}
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}

// EncodePolyline is the inverse of DecodePolyline at precision 5.
func EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// MedianCenter returns the coordinate-wise median of the route's latitudes
// and longitudes, taken independently. The median keeps the view centered
// on the bulk of the route when a GPS jump drops a single far-away point,
// where a mean would drag the center toward the outlier.
func MedianCenter(points []Point) Point {
	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	return Point{Lat: median(lats), Lon: median(lons)}
}

func median(vs []float64) float64 {
	sort.Float64s(vs)
	n := len(vs)
	if n%2 == 1 {
		return vs[n/2]
	}
	return (vs[n/2-1] + vs[n/2]) / 2
}
