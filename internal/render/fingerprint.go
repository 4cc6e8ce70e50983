package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"trail-map-service/internal/route"
)

// Fingerprint digests a request's semantic content into the key used for
// both the artifact cache and in-flight job deduplication.
//
// The digest runs over a canonical, field-tagged binary serialization:
// decoded coordinates at full precision (so two encodings or whitespace
// variants of the same polyline collide by construction, while any precision
// difference — a visually different route — does not), then each optional
// field with an explicit presence marker so that an absent field and a
// present-but-empty one stay distinct.
func Fingerprint(req *route.Request) string {
	d := xxhash.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(req.Points)))
	d.Write(buf[:])
	for _, p := range req.Points {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.Lat))
		d.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.Lon))
		d.Write(buf[:])
	}

	writeOptional(d, 't', req.Title)
	writeOptional(d, 'u', req.Duration)
	writeOptional(d, 'd', req.Distance)
	writeOptional(d, 'e', req.ElevationGain)
	writeOptional(d, 'a', req.AverageSpeed)
	writeOptional(d, 's', req.TopSpeed)

	return fmt.Sprintf("%016x", d.Sum64())
}

func writeOptional(d *xxhash.Digest, tag byte, v *string) {
	if v == nil {
		d.Write([]byte{tag, 0})
		return
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(*v)))
	d.Write([]byte{tag, 1})
	d.Write(buf[:])
	d.WriteString(*v)
}
