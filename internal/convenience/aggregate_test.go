package convenience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout-au/suburbscore/internal/model"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	// Static invariant: the category weights sum to exactly 1.0.
	var sum float64
	for _, cat := range model.Categories {
		sum += DefaultWeights()[cat]
	}
	assert.InEpsilon(t, 1.0, sum, 1e-12)
	require.NoError(t, DefaultWeights().Validate())
}

func TestAggregate(t *testing.T) {
	agg, err := NewAggregator(DefaultWeights())
	require.NoError(t, err)

	full := func(v float64) model.Score {
		return model.Score{Value: v, Confidence: 1, HigherIsBetter: true}
	}

	t.Run("weighted category blend", func(t *testing.T) {
		got := agg.Aggregate("perth", map[model.Category]model.Score{
			model.CategoryTransport:  full(8.0),
			model.CategoryEducation:  full(6.0),
			model.CategoryHealth:     full(7.0),
			model.CategoryRecreation: full(5.0),
			model.CategoryShopping:   full(9.0),
		}, model.Provenance{})

		want := 0.40*8.0 + 0.20*6.0 + 0.15*7.0 + 0.15*5.0 + 0.10*9.0
		assert.InDelta(t, model.Round1(want), got.Overall, 0.001)
		assert.InDelta(t, 1.0, got.Confidence, 0.001)
	})

	t.Run("all worst categories yield 1", func(t *testing.T) {
		components := make(map[model.Category]model.Score)
		for _, cat := range model.Categories {
			components[cat] = model.Score{Value: 1, Confidence: 1, HigherIsBetter: true}
		}
		got := agg.Aggregate("a", components, model.Provenance{})
		assert.InDelta(t, 1.0, got.Overall, 0.001)
	})

	t.Run("missing category degrades confidence not the batch", func(t *testing.T) {
		got := agg.Aggregate("a", map[model.Category]model.Score{
			model.CategoryTransport: full(8.0),
		}, model.Provenance{})
		assert.Less(t, got.Confidence, 1.0)
		assert.True(t, got.Provenance.Fallback)
		require.Len(t, got.Components, len(model.Categories), "missing categories filled in")
	})

	t.Run("nil components map", func(t *testing.T) {
		got := agg.Aggregate("a", nil, model.Provenance{})
		assert.InDelta(t, 1.0, got.Overall, 0.001)
		assert.InDelta(t, 0.0, got.Confidence, 0.001)
	})
}

func TestWeightsValidate(t *testing.T) {
	t.Run("missing category", func(t *testing.T) {
		w := DefaultWeights()
		delete(w, model.CategoryHealth)
		assert.Error(t, w.Validate())
	})

	t.Run("sum off by a little", func(t *testing.T) {
		w := DefaultWeights()
		w[model.CategoryTransport] = 0.41
		assert.Error(t, w.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		w := DefaultWeights()
		w[model.Category("nightlife")] = 0.0
		assert.Error(t, w.Validate())
	})
}
