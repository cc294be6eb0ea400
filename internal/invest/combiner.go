// Package invest blends safety and convenience into an investment
// recommendation.
package invest

import "github.com/homescout-au/suburbscore/internal/model"

// Blend weights. Safety dominates the recommendation.
const (
	SafetyWeight      = 0.60
	ConvenienceWeight = 0.40
)

// Recommendation tier thresholds on the combined 1-10 scale. The combiner
// is declared higher-is-better once; every threshold below reads in that
// orientation.
const (
	excellentThreshold = 8.0
	goodThreshold      = 6.5
	fairThreshold      = 5.0
)

// Combiner produces investment indexes. HigherIsBetter is fixed at
// construction and applied consistently to blending and tiering.
type Combiner struct {
	higherIsBetter bool
}

// NewCombiner returns a combiner in the standard higher-is-better
// orientation.
func NewCombiner() *Combiner {
	return &Combiner{higherIsBetter: true}
}

// Combine blends a safety rating and a convenience score. The combined
// value is exactly 0.6*safety + 0.4*convenience clamped to [1,10]; the
// confidence blends the inputs' confidences with the same weights.
func (c *Combiner) Combine(safety model.SafetyRating, conv model.ConvenienceScore) model.InvestmentIndex {
	combined := model.Clamp(SafetyWeight*safety.Overall+ConvenienceWeight*conv.Overall, 1, 10)

	prov := safety.Provenance
	prov.Merge(conv.Provenance)

	return model.InvestmentIndex{
		AreaID:      safety.AreaID,
		Safety:      safety.Overall,
		Convenience: conv.Overall,
		Combined:    combined,
		Tier:        c.tierFor(combined),
		Confidence:  model.Clamp(SafetyWeight*safety.Confidence+ConvenienceWeight*conv.Confidence, 0, 1),
		Provenance:  prov,
	}
}

func (c *Combiner) tierFor(combined float64) model.RecommendationTier {
	v := combined
	if !c.higherIsBetter {
		v = 11 - v
	}
	switch {
	case v >= excellentThreshold:
		return model.TierExcellent
	case v >= goodThreshold:
		return model.TierGood
	case v >= fairThreshold:
		return model.TierFair
	default:
		return model.TierPoor
	}
}
