// Package synthetic generates deterministic stand-in data for datasets
// that have not been ingested yet. Every value it produces is labeled as
// synthetic so provenance never silently mixes with real data.
package synthetic

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/homescout-au/suburbscore/internal/model"
)

// maxConfidence caps the confidence of any synthetic value. Synthetic data
// can never claim to be as trustworthy as ingested data.
const maxConfidence = 0.5

// Provider generates per-area synthetic demographics and trends. The same
// area id always produces the same values, so scores stay stable between
// runs until real data arrives.
type Provider struct{}

// NewProvider returns a synthetic fallback provider.
func NewProvider() *Provider { return &Provider{} }

// rng returns a deterministic generator seeded from the area id.
func rng(areaID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(areaID))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DemographicIndex returns a synthetic 0-10 demographic index for an area.
func (p *Provider) DemographicIndex(areaID string) model.Score {
	r := rng(areaID)
	// Centered around the middle of the band, avoiding fabricated extremes.
	v := 4.0 + r.Float64()*4.0
	return model.Score{Value: v, Confidence: maxConfidence, HigherIsBetter: true}
}

// Trend returns a synthetic trend classification for an area.
func (p *Provider) Trend(areaID string) model.Trend {
	switch rng(areaID).IntN(4) {
	case 0:
		return model.TrendDecreasing
	case 1, 2:
		return model.TrendStable
	default:
		return model.TrendIncreasing
	}
}
