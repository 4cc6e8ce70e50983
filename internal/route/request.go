package route

import (
	"fmt"
	"net/url"
	"strconv"
)

// Request is the value object a single map render is built from. Optional
// fields keep their raw query form: absent (nil) and present-but-empty are
// different requests and must stay distinguishable downstream.
type Request struct {
	Points        []Point
	Title         *string
	Duration      *string
	Distance      *string
	ElevationGain *string
	AverageSpeed  *string
	TopSpeed      *string
}

// StatLine is one label/value pair shown on the image overlay.
type StatLine struct {
	Label string
	Value string
}

// ParseQuery builds a Request from the /map query parameters. The polyline
// is the only required parameter; everything else passes through untouched.
func ParseQuery(q url.Values) (*Request, error) {
	points, err := DecodePolyline(q.Get("polyline"))
	if err != nil {
		return nil, err
	}
	return &Request{
		Points:        points,
		Title:         optional(q, "title"),
		Duration:      optional(q, "duration"),
		Distance:      optional(q, "distance"),
		ElevationGain: optional(q, "elevation_gain"),
		AverageSpeed:  optional(q, "average_speed"),
		TopSpeed:      optional(q, "top_speed"),
	}, nil
}

func optional(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

// StatLines formats the ride statistics for display, in a fixed order.
// Unparseable numbers fall back to zero rather than failing the render.
func (r *Request) StatLines() []StatLine {
	var lines []StatLine
	if r.Duration != nil {
		secs, _ := strconv.ParseInt(*r.Duration, 10, 64)
		lines = append(lines, StatLine{"Duration", secondsToHumanReadable(secs)})
	}
	if r.Distance != nil {
		meters, _ := strconv.ParseFloat(*r.Distance, 64)
		lines = append(lines, StatLine{"Distance", fmt.Sprintf("%.1f mi", metersToMiles(meters))})
	}
	if r.ElevationGain != nil {
		meters, _ := strconv.ParseFloat(*r.ElevationGain, 64)
		lines = append(lines, StatLine{"Elevation Gain", fmt.Sprintf("%.1f ft", metersToFeet(meters))})
	}
	if r.AverageSpeed != nil {
		speed, _ := strconv.ParseFloat(*r.AverageSpeed, 64)
		lines = append(lines, StatLine{"Avg Speed", fmt.Sprintf("%.1f mph", speed)})
	}
	if r.TopSpeed != nil {
		speed, _ := strconv.ParseFloat(*r.TopSpeed, 64)
		lines = append(lines, StatLine{"Top Speed", fmt.Sprintf("%.1f mph", speed)})
	}
	return lines
}

func metersToMiles(meters float64) float64 {
	return meters * 0.000621371
}

func metersToFeet(meters float64) float64 {
	return meters * 3.28084
}

func secondsToHumanReadable(seconds int64) string {
	minutes := seconds / 60
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%d minute", mins)
	}
	return fmt.Sprintf("%d hour, %d minute", hours, mins)
}
