package jurisdiction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/homescout-au/suburbscore/internal/model"
)

func bounds(minLng, minLat, maxLng, maxLat float64) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(minLng, minLat, maxLng, maxLat)
}

func testResolver() *Resolver {
	return NewResolver([]Jurisdiction{
		{ID: "perth-district", Name: "Perth District", Bounds: bounds(115.7, -32.1, 116.0, -31.8)},
		{ID: "fremantle-district", Name: "Fremantle District", Bounds: bounds(115.6, -32.3, 115.85, -32.0)},
		{ID: "midland-district", Name: "Midland District", Bounds: bounds(115.95, -32.0, 116.3, -31.7)},
	}, map[string]string{
		"stored-area": "midland-district",
	})
}

func TestResolveExplicitMapping(t *testing.T) {
	r := testResolver()

	t.Run("area carries jurisdiction id", func(t *testing.T) {
		got := r.Resolve(model.Area{ID: "a1", JurisdictionID: "perth-district"})
		require.Len(t, got, 1)
		assert.Equal(t, SourceExplicit, got[0].Source)
		assert.InDelta(t, 1.0, got[0].Confidence, 0.001)
		assert.InDelta(t, 1.0, got[0].CoverageWeight, 0.001)
	})

	t.Run("stored mapping by area id", func(t *testing.T) {
		got := r.Resolve(model.Area{ID: "stored-area", Latitude: 0, Longitude: 0})
		require.Len(t, got, 1)
		assert.Equal(t, "midland-district", got[0].JurisdictionID)
		assert.Equal(t, SourceExplicit, got[0].Source)
	})

	t.Run("unknown explicit id is ignored", func(t *testing.T) {
		got := r.Resolve(model.Area{ID: "a2", JurisdictionID: "no-such-district", Name: "Nowhere"})
		assert.Nil(t, got)
	})
}

func TestResolveBBox(t *testing.T) {
	r := testResolver()

	t.Run("single district", func(t *testing.T) {
		// Subiaco sits only in the perth-district box.
		got := r.Resolve(model.Area{ID: "subiaco", Name: "Subiaco", Latitude: -31.9442, Longitude: 115.8261})
		require.Len(t, got, 1)
		assert.Equal(t, "perth-district", got[0].JurisdictionID)
		assert.Equal(t, SourceBBox, got[0].Source)
		assert.InDelta(t, 0.8, got[0].Confidence, 0.001)
	})

	t.Run("straddling two districts splits coverage", func(t *testing.T) {
		// Point in the perth/fremantle box overlap.
		got := r.Resolve(model.Area{ID: "border", Name: "Bordertown", Latitude: -32.05, Longitude: 115.8})
		require.Len(t, got, 2)
		for _, m := range got {
			assert.InDelta(t, 0.5, m.CoverageWeight, 0.001)
		}
	})
}

func TestResolveNameFallback(t *testing.T) {
	r := testResolver()
	// Coordinates outside every box, but the name contains a district name.
	got := r.Resolve(model.Area{ID: "x", Name: "East Midland District Annex", Latitude: -20, Longitude: 130})
	require.Len(t, got, 1)
	assert.Equal(t, "midland-district", got[0].JurisdictionID)
	assert.Equal(t, SourceName, got[0].Source)
	assert.Less(t, got[0].Confidence, confBBox)
}

func TestResolveNothing(t *testing.T) {
	r := testResolver()
	got := r.Resolve(model.Area{ID: "x", Name: "Karratha", Latitude: -20.7, Longitude: 116.8})
	assert.Nil(t, got)
}

func TestBlendedCrimeIndex(t *testing.T) {
	t.Run("weighted average across districts", func(t *testing.T) {
		matches := []Match{
			{JurisdictionID: "a", CoverageWeight: 0.6, Confidence: 0.8},
			{JurisdictionID: "b", CoverageWeight: 0.4, Confidence: 0.8},
		}
		idx := map[string]float64{"a": 8.0, "b": 5.0}
		got := BlendedCrimeIndex(matches, idx, 6.0)
		assert.InDelta(t, 0.6*8.0+0.4*5.0, got.Value, 0.001)
		assert.InDelta(t, 0.8, got.Confidence, 0.001)
		assert.True(t, got.HigherIsBetter)
	})

	t.Run("nil matches uses state default with zero confidence", func(t *testing.T) {
		got := BlendedCrimeIndex(nil, nil, 6.2)
		assert.InDelta(t, 6.2, got.Value, 0.001)
		assert.InDelta(t, 0.0, got.Confidence, 0.001)
		// Never fabricate certainty at the scale edges.
		assert.NotEqual(t, 0.0, got.Value)
		assert.NotEqual(t, 10.0, got.Value)
	})

	t.Run("partial coverage lowers confidence", func(t *testing.T) {
		full := BlendedCrimeIndex([]Match{
			{JurisdictionID: "a", CoverageWeight: 1.0, Confidence: 0.8},
		}, map[string]float64{"a": 7.0}, 6.0)
		partial := BlendedCrimeIndex([]Match{
			{JurisdictionID: "a", CoverageWeight: 0.5, Confidence: 0.8},
		}, map[string]float64{"a": 7.0}, 6.0)
		assert.Less(t, partial.Confidence, full.Confidence)
		assert.InDelta(t, 7.0, partial.Value, 0.001, "value unaffected by coverage")
	})

	t.Run("missing index for matched district falls back", func(t *testing.T) {
		got := BlendedCrimeIndex([]Match{
			{JurisdictionID: "ghost", CoverageWeight: 1.0, Confidence: 0.8},
		}, map[string]float64{}, 6.0)
		assert.InDelta(t, 6.0, got.Value, 0.001)
		assert.InDelta(t, 0.0, got.Confidence, 0.001)
	})
}

func TestCoverage(t *testing.T) {
	r := testResolver()
	areas := []model.Area{
		{ID: "subiaco", Name: "Subiaco", Latitude: -31.9442, Longitude: 115.8261},
		{ID: "stored-area"},
		{ID: "karratha", Name: "Karratha", Latitude: -20.7, Longitude: 116.8},
	}

	stats := r.Coverage(areas)
	assert.Equal(t, 3, stats.Areas)
	assert.Equal(t, 2, stats.Resolved)
	assert.InDelta(t, 2.0/3.0, stats.Fraction, 0.001)
	assert.Equal(t, 1, stats.BySource[SourceBBox])
	assert.Equal(t, 1, stats.BySource[SourceExplicit])
	assert.Equal(t, []string{"karratha"}, stats.Unresolved)
}
