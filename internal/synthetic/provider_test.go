package synthetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemographicIndexDeterministic(t *testing.T) {
	p := NewProvider()

	a := p.DemographicIndex("subiaco")
	b := p.DemographicIndex("subiaco")
	assert.Equal(t, a, b, "same area id always yields the same value")

	other := p.DemographicIndex("fremantle")
	assert.NotEqual(t, a.Value, other.Value, "different ids should diverge")
}

func TestDemographicIndexBounds(t *testing.T) {
	p := NewProvider()
	for _, id := range []string{"a", "b", "c", "perth", "mandurah", "x1", "x2", "x3"} {
		s := p.DemographicIndex(id)
		assert.GreaterOrEqual(t, s.Value, 4.0)
		assert.LessOrEqual(t, s.Value, 8.0)
		assert.LessOrEqual(t, s.Confidence, maxConfidence,
			"synthetic data can never claim full confidence")
	}
}

func TestTrendDeterministic(t *testing.T) {
	p := NewProvider()
	assert.Equal(t, p.Trend("subiaco"), p.Trend("subiaco"))
}
