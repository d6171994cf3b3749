package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routegeo/internal/model"
)

func TestSimplifyShortInputsUnchanged(t *testing.T) {
	inputs := [][]model.GeoPoint{
		nil,
		{{Lat: 1, Lng: 2}},
		{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}},
	}
	for _, in := range inputs {
		for _, tol := range []float64{0, 1e-4, 10} {
			assert.Equal(t, in, Simplify(in, tol))
		}
	}
}

func TestSimplifyCollinearCollapses(t *testing.T) {
	in := make([]model.GeoPoint, 9)
	for i := range in {
		in[i] = model.GeoPoint{Lat: float64(i), Lng: float64(i)}
	}
	got := Simplify(in, 0)
	assert.Equal(t, []model.GeoPoint{in[0], in[8]}, got)
}

func TestSimplifyKeepsPeak(t *testing.T) {
	in := []model.GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 0.50001, Lng: 1},
		{Lat: 1, Lng: 2},
		{Lat: 0.50001, Lng: 3},
		{Lat: 0, Lng: 4},
	}
	got := Simplify(in, 0.01)
	assert.Equal(t, []model.GeoPoint{in[0], in[2], in[4]}, got)
}

func TestSimplifyDegenerateChord(t *testing.T) {
	// closed loop: first and last coincide, so every interior distance is 0
	in := []model.GeoPoint{
		{Lat: 5, Lng: 5},
		{Lat: 6, Lng: 5},
		{Lat: 6, Lng: 6},
		{Lat: 5, Lng: 5},
	}
	got := Simplify(in, 1e-9)
	assert.Equal(t, []model.GeoPoint{in[0], in[3]}, got)
}

func TestSimplifyNegativeTolerance(t *testing.T) {
	collinear := []model.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	assert.Equal(t, []model.GeoPoint{collinear[0], collinear[2]}, Simplify(collinear, -1))

	loop := []model.GeoPoint{{Lat: 5, Lng: 5}, {Lat: 6, Lng: 5}, {Lat: 5, Lng: 5}}
	assert.Equal(t, []model.GeoPoint{loop[0], loop[2]}, Simplify(loop, -1))

	arc := convexArc(50)
	got := Simplify(arc, -1)
	require.NotEmpty(t, got)
	assert.Equal(t, arc[0], got[0])
	assert.Equal(t, arc[49], got[len(got)-1])
}

func TestSimplifyPreservesEndpointsAndSubset(t *testing.T) {
	in := convexArc(400)
	for _, tol := range []float64{0, 1e-6, 1e-4, 1e-2, 1} {
		got := Simplify(in, tol)
		require.GreaterOrEqual(t, len(got), 2)
		require.LessOrEqual(t, len(got), len(in))
		assert.Equal(t, in[0], got[0])
		assert.Equal(t, in[len(in)-1], got[len(got)-1])

		// every output point is an input point, in input order
		j := 0
		for _, p := range got {
			for j < len(in) && in[j] != p {
				j++
			}
			require.Less(t, j, len(in), "point %+v not found in order", p)
		}
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	in := convexArc(300)
	assert.Equal(t, Simplify(in, 1e-4), Simplify(in, 1e-4))
}

func TestSimplifyToleranceMonotonic(t *testing.T) {
	in := convexArc(500)
	fine := Simplify(in, 1e-5)
	coarse := Simplify(in, 1e-2)
	assert.Greater(t, len(fine), len(coarse))
}

func TestSimplifyLargeThreshold(t *testing.T) {
	small := convexArc(DefaultThreshold)
	assert.Equal(t, small, SimplifyLarge(small, 1, 0))

	large := convexArc(DefaultThreshold + 1)
	got := SimplifyLarge(large, 0, 0)
	assert.Less(t, len(got), len(large))
	assert.Equal(t, Simplify(large, DefaultTolerance), got)

	custom := SimplifyLarge(convexArc(50), 1, 10)
	assert.Len(t, custom, 2)
}

func TestPerpendicularDistance(t *testing.T) {
	start := model.GeoPoint{Lat: 0, Lng: 0}
	end := model.GeoPoint{Lat: 0, Lng: 10}
	assert.InDelta(t, 3, perpendicularDistance(model.GeoPoint{Lat: 3, Lng: 5}, start, end), 1e-12)
	// projection beyond the segment still measures to the infinite line
	assert.InDelta(t, 2, perpendicularDistance(model.GeoPoint{Lat: -2, Lng: 20}, start, end), 1e-12)
	assert.Zero(t, perpendicularDistance(model.GeoPoint{Lat: 1, Lng: 1}, start, start))
}

// convexArc samples a quarter circle of radius 0.05 degrees.
func convexArc(n int) []model.GeoPoint {
	out := make([]model.GeoPoint, n)
	for i := range out {
		a := math.Pi / 2 * float64(i) / float64(n-1)
		out[i] = model.GeoPoint{Lat: 40 + 0.05*math.Sin(a), Lng: -74 + 0.05*math.Cos(a)}
	}
	return out
}
