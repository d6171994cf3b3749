// Package polyline implements the encoded polyline format used by routing
// and mapping providers: signed zig-zag deltas in 5-bit groups, offset by 63
// into printable ASCII, at a fixed 1e-5 degree precision.
package polyline

import (
	"math"
	"strings"

	"routegeo/internal/model"
)

// scale is fixed by the format.
const scale = 1e-5

// Decode parses an encoded polyline into points. It never fails: a truncated
// string yields the points completed before the cut, and an empty string
// yields an empty slice.
func Decode(encoded string) []model.GeoPoint {
	points := make([]model.GeoPoint, 0, len(encoded)/4)
	index := 0
	lat, lng := 0, 0
	for index < len(encoded) {
		dlat, next, ok := decodeValue(encoded, index)
		if !ok {
			break
		}
		dlng, next, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		index = next
		lat += dlat
		lng += dlng
		points = append(points, model.GeoPoint{
			Lat: float64(lat) * scale,
			Lng: float64(lng) * scale,
		})
	}
	return points
}

// decodeValue reads one varint starting at index and returns the signed
// delta and the index after it. ok is false when the input ends before a
// terminating chunk.
func decodeValue(encoded string, index int) (delta, next int, ok bool) {
	result, shift := 0, 0
	for index < len(encoded) {
		chunk := int(encoded[index]) - 63
		index++
		if shift < 64 {
			result |= (chunk & 0x1f) << shift
		}
		shift += 5
		if chunk < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}
	return 0, index, false
}

// Encode is the inverse of Decode. Coordinates are rounded to 1e-5 degrees.
func Encode(points []model.GeoPoint) string {
	var b strings.Builder
	b.Grow(len(points) * 8)
	prevLat, prevLng := 0, 0
	for _, p := range points {
		lat := int(math.Round(p.Lat / scale))
		lng := int(math.Round(p.Lng / scale))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((u&0x1f)|0x20) + 63)
		u >>= 5
	}
	b.WriteByte(byte(u) + 63)
}
