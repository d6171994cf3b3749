package geo

import (
	"math"

	"routegeo/internal/model"
)

const (
	// DefaultTolerance is the simplification tolerance in raw degrees.
	DefaultTolerance = 1e-4
	// DefaultThreshold is the point count above which routes get simplified.
	DefaultThreshold = 1000

	// segments shorter than this are treated as a single point
	degenerateSegment = 1e-7
)

// SimplifyLarge simplifies points only when there are more than threshold of
// them; smaller routes are returned as is. threshold <= 0 means DefaultThreshold
// and tolerance <= 0 means DefaultTolerance.
func SimplifyLarge(points []model.GeoPoint, tolerance float64, threshold int) []model.GeoPoint {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(points) <= threshold {
		return points
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Simplify(points, tolerance)
}

// Simplify reduces points with the Douglas-Peucker algorithm. Distances are
// Euclidean in (lat, lng) degree space. The first and last points are always
// kept, and inputs of two points or fewer are returned unchanged.
func Simplify(points []model.GeoPoint, tolerance float64) []model.GeoPoint {
	if len(points) <= 2 {
		return points
	}
	first, last := points[0], points[len(points)-1]
	maxDist, maxIndex := 0.0, 0
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIndex = i
		}
	}
	// maxIndex 0 means no interior point beat zero; splitting there would not shrink the input
	if maxIndex > 0 && maxDist > tolerance {
		left := Simplify(points[:maxIndex+1], tolerance)
		right := Simplify(points[maxIndex:], tolerance)
		out := make([]model.GeoPoint, 0, len(left)+len(right)-1)
		out = append(out, left[:len(left)-1]...)
		return append(out, right...)
	}
	return []model.GeoPoint{first, last}
}

// perpendicularDistance is the distance from p to the infinite line through
// start and end.
func perpendicularDistance(p, start, end model.GeoPoint) float64 {
	dx := end.Lng - start.Lng
	dy := end.Lat - start.Lat
	lenSq := dx*dx + dy*dy
	if math.Sqrt(lenSq) < degenerateSegment {
		return 0
	}
	u := ((p.Lng-start.Lng)*dx + (p.Lat-start.Lat)*dy) / lenSq
	closestLng := start.Lng + u*dx
	closestLat := start.Lat + u*dy
	return math.Hypot(p.Lng-closestLng, p.Lat-closestLat)
}
