// Package geo holds pure geometry over decoded route points: Douglas-Peucker
// simplification, great-circle distances, headings, bounds and off-route
// detection.
package geo

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"routegeo/internal/model"
)

const earthRadiusM = 6371000.0

const (
	// DeviationThresholdM is how far from the route a vehicle must be to count as off-route.
	DeviationThresholdM = 100.0
	// DeviationMinDuration is how long it must stay off-route before it is reported.
	DeviationMinDuration = 60 * time.Second
	// AverageSpeedMps converts distance behind schedule into time (30 km/h).
	AverageSpeedMps = 30 * 1000 / 3600.0
)

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b model.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Length sums the haversine distance along points.
func Length(points []model.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

// Heading returns the initial bearing from one point to another in degrees,
// in [0, 360) with 0 being north and 90 east.
func Heading(from, to model.GeoPoint) float64 {
	dLng := toRad(to.Lng - from.Lng)
	lat1, lat2 := toRad(from.Lat), toRad(to.Lat)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// BoundsOf returns the bounding box of points; ok is false for no points.
func BoundsOf(points []model.GeoPoint) (b model.Bounds, ok bool) {
	if len(points) == 0 {
		return b, false
	}
	b = model.Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lng)
		b.East = math.Max(b.East, p.Lng)
	}
	return b, true
}

// DetectDeviation reports whether current is off route. A vehicle is
// deviated when its nearest route vertex is more than DeviationThresholdM
// away and the most recent unbroken off-route streak in history started at
// least DeviationMinDuration before now.
func DetectDeviation(current model.GeoPoint, route []model.GeoPoint, history []model.Fix, now time.Time) model.Deviation {
	if len(route) == 0 {
		return model.Deviation{}
	}
	nearest, minDist := route[0], math.Inf(1)
	for _, p := range route {
		if d := Haversine(current, p); d < minDist {
			minDist = d
			nearest = p
		}
	}
	base := model.Deviation{
		DistanceM:  minDist,
		Nearest:    FormatCoordinates(nearest),
		HeadingDeg: Heading(current, nearest),
	}
	if minDist <= DeviationThresholdM {
		return base
	}

	sorted := make([]model.Fix, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	var since *time.Time
	for i := range sorted {
		f := sorted[i]
		if Haversine(f.Point(), nearest) > DeviationThresholdM {
			if since == nil {
				since = &sorted[i].At
			}
		} else {
			since = nil
		}
	}
	if since == nil {
		return base
	}
	dur := now.Sub(*since)
	base.Deviated = dur >= DeviationMinDuration
	base.DurationSec = dur.Seconds()
	return base
}

// EstimateDelay estimates how many whole minutes current is behind schedule.
// Progress is assumed linear in time from the schedule's first timestamp (or
// scheduledStart when the first fix has none) to its last; the gap to the
// expected fix is converted to time at AverageSpeedMps. ok is false when the
// schedule is empty or spans no time.
func EstimateDelay(current model.GeoPoint, now time.Time, schedule []model.Fix, scheduledStart time.Time) (minutes int, ok bool) {
	if len(schedule) == 0 {
		return 0, false
	}
	from := schedule[0].At
	if from.IsZero() {
		from = scheduledStart
	}
	last := schedule[len(schedule)-1].At
	if last.IsZero() {
		return 0, false
	}
	total := last.Sub(from)
	if total <= 0 {
		return 0, false
	}

	progress := math.Min(float64(now.Sub(scheduledStart))/float64(total), 1)
	idx := int(math.Floor(progress * float64(len(schedule)-1)))
	if idx < 0 {
		idx = 0
	}
	delay := Haversine(current, schedule[idx].Point()) / AverageSpeedMps / 60
	return int(math.Round(delay)), true
}

// FormatCoordinates renders p as "lat,lng" with six decimals, for deep links.
func FormatCoordinates(p model.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// ParseCoordinates parses the "lat,lng" form produced by FormatCoordinates.
func ParseCoordinates(s string) (model.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.GeoPoint{}, fmt.Errorf("coordinates %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("coordinates %q: lat: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("coordinates %q: lng: %w", s, err)
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
