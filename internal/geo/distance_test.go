package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routegeo/internal/model"
)

func TestHaversine(t *testing.T) {
	a := model.GeoPoint{Lat: 0, Lng: 0}
	b := model.GeoPoint{Lat: 0, Lng: 1}
	// one degree of longitude at the equator
	assert.InDelta(t, 111195, Haversine(a, b), 5)
	assert.Zero(t, Haversine(a, a))
}

func TestLength(t *testing.T) {
	pts := []model.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}}
	assert.InDelta(t, 2*Haversine(pts[0], pts[1]), Length(pts), 1e-6)
	assert.Zero(t, Length(pts[:1]))
	assert.Zero(t, Length(nil))
}

func TestHeading(t *testing.T) {
	origin := model.GeoPoint{Lat: 0, Lng: 0}
	tests := []struct {
		name string
		to   model.GeoPoint
		want float64
	}{
		{"north", model.GeoPoint{Lat: 1, Lng: 0}, 0},
		{"east", model.GeoPoint{Lat: 0, Lng: 1}, 90},
		{"south", model.GeoPoint{Lat: -1, Lng: 0}, 180},
		{"west", model.GeoPoint{Lat: 0, Lng: -1}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Heading(origin, tt.to), 1e-9)
		})
	}
}

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok)

	b, ok := BoundsOf([]model.GeoPoint{{Lat: 1, Lng: -3}, {Lat: -2, Lng: 4}, {Lat: 0.5, Lng: 0}})
	require.True(t, ok)
	assert.Equal(t, model.Bounds{South: -2, West: -3, North: 1, East: 4}, b)
}

func TestDetectDeviation(t *testing.T) {
	route := []model.GeoPoint{{Lat: -23.55, Lng: -46.63}, {Lat: -23.56, Lng: -46.63}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	off := model.GeoPoint{Lat: -23.55, Lng: -46.62} // ~1 km east

	t.Run("on route", func(t *testing.T) {
		d := DetectDeviation(route[0], route, nil, now)
		assert.False(t, d.Deviated)
		assert.Zero(t, d.DurationSec)
		assert.Equal(t, "-23.550000,-46.630000", d.Nearest)
	})

	t.Run("empty route", func(t *testing.T) {
		assert.Equal(t, model.Deviation{}, DetectDeviation(off, nil, nil, now))
	})

	t.Run("off route long enough", func(t *testing.T) {
		history := []model.Fix{
			{Lat: off.Lat, Lng: off.Lng, At: now.Add(-30 * time.Second)},
			{Lat: off.Lat, Lng: off.Lng, At: now.Add(-90 * time.Second)},
		}
		d := DetectDeviation(off, route, history, now)
		assert.True(t, d.Deviated)
		assert.InDelta(t, 90, d.DurationSec, 1e-9)
		assert.Greater(t, d.DistanceM, DeviationThresholdM)
	})

	t.Run("streak reset by return to route", func(t *testing.T) {
		history := []model.Fix{
			{Lat: off.Lat, Lng: off.Lng, At: now.Add(-120 * time.Second)},
			{Lat: route[0].Lat, Lng: route[0].Lng, At: now.Add(-40 * time.Second)},
			{Lat: off.Lat, Lng: off.Lng, At: now.Add(-20 * time.Second)},
		}
		d := DetectDeviation(off, route, history, now)
		assert.False(t, d.Deviated)
		assert.InDelta(t, 20, d.DurationSec, 1e-9)
	})

	t.Run("no history", func(t *testing.T) {
		d := DetectDeviation(off, route, nil, now)
		assert.False(t, d.Deviated)
		assert.Greater(t, d.DistanceM, DeviationThresholdM)
		// the route lies due west
		assert.InDelta(t, 270, d.HeadingDeg, 0.1)
		got, err := ParseCoordinates(d.Nearest)
		require.NoError(t, err)
		assert.InDelta(t, route[0].Lat, got.Lat, 1e-9)
		assert.InDelta(t, route[0].Lng, got.Lng, 1e-9)
	})
}

func TestEstimateDelay(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	schedule := []model.Fix{
		{Lat: 52.00, Lng: 13.0, At: start},
		{Lat: 52.05, Lng: 13.0, At: start.Add(10 * time.Minute)},
		{Lat: 52.10, Lng: 13.0, At: start.Add(20 * time.Minute)},
	}
	onPlan := model.GeoPoint{Lat: 52.05, Lng: 13.0}
	behind := model.GeoPoint{Lat: 52.005, Lng: 13.0} // ~5 km short of the expected fix

	tests := []struct {
		name     string
		current  model.GeoPoint
		now      time.Time
		schedule []model.Fix
		want     int
		wantOK   bool
	}{
		{name: "on schedule", current: onPlan, now: start.Add(10 * time.Minute), schedule: schedule, want: 0, wantOK: true},
		{name: "behind", current: behind, now: start.Add(10 * time.Minute), schedule: schedule, want: 10, wantOK: true},
		{name: "past the end clamps to last fix", current: schedule[2].Point(), now: start.Add(2 * time.Hour), schedule: schedule, want: 0, wantOK: true},
		{name: "before start uses first fix", current: schedule[0].Point(), now: start.Add(-time.Minute), schedule: schedule, want: 0, wantOK: true},
		{name: "empty schedule", current: onPlan, now: start, want: 0, wantOK: false},
		{name: "no time span", current: onPlan, now: start, schedule: []model.Fix{schedule[0], {Lat: 52.1, Lng: 13, At: start}}, want: 0, wantOK: false},
		{name: "untimed start falls back to scheduled start", current: behind, now: start.Add(10 * time.Minute),
			schedule: []model.Fix{{Lat: 52.00, Lng: 13.0}, schedule[1], schedule[2]}, want: 10, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateDelay(tt.current, tt.now, tt.schedule, start)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinatesRoundTrip(t *testing.T) {
	p := model.GeoPoint{Lat: -23.550520, Lng: -46.633308}
	s := FormatCoordinates(p)
	assert.Equal(t, "-23.550520,-46.633308", s)

	got, err := ParseCoordinates(s)
	require.NoError(t, err)
	assert.InDelta(t, p.Lat, got.Lat, 1e-9)
	assert.InDelta(t, p.Lng, got.Lng, 1e-9)

	for _, bad := range []string{"", "1", "a,b", "1,2,3", "1,x"} {
		_, err := ParseCoordinates(bad)
		assert.Error(t, err, bad)
	}
}
