package model

import "math"

// Score is a single rating on the shared 1-10 scale, carrying its own
// confidence and polarity. Confidence reflects how much of the input was
// real data versus fallback; it is never conflated with the value itself.
type Score struct {
	Value          float64 `json:"value"`
	Confidence     float64 `json:"confidence"`
	HigherIsBetter bool    `json:"higher_is_better"`
}

// Normalized returns the score oriented so that higher is always better,
// regardless of the raw polarity. Legacy consumers that expect the raw
// convention read Value directly.
func (s Score) Normalized() float64 {
	if s.HigherIsBetter {
		return s.Value
	}
	// Mirror within the 1-10 band.
	return 11 - s.Value
}

// Provenance records where a score's inputs came from.
type Provenance struct {
	Synthetic bool `json:"synthetic"` // any synthetic fallback data used
	Fallback  bool `json:"fallback"`  // any documented fallback value used
}

// Merge folds another provenance into this one.
func (p *Provenance) Merge(other Provenance) {
	p.Synthetic = p.Synthetic || other.Synthetic
	p.Fallback = p.Fallback || other.Fallback
}

// SafetyComponents is the fixed-shape breakdown of a safety rating.
type SafetyComponents struct {
	Crime        Score `json:"crime"`
	Demographic  Score `json:"demographic"`
	Neighborhood Score `json:"neighborhood"`
	Trend        Score `json:"trend"`
}

// SafetyRating is the safety result for one area. Created per scoring
// request and never mutated afterwards.
type SafetyRating struct {
	AreaID     string           `json:"area_id"`
	Overall    float64          `json:"overall_rating"`
	Confidence float64          `json:"confidence"`
	Components SafetyComponents `json:"components"`
	Provenance Provenance       `json:"provenance"`
}

// ConvenienceScore is the convenience result for a point or area.
type ConvenienceScore struct {
	AreaID     string             `json:"area_id,omitempty"`
	Overall    float64            `json:"overall_score"`
	Confidence float64            `json:"confidence"`
	Components map[Category]Score `json:"components"`
	Provenance Provenance         `json:"provenance"`
}

// RecommendationTier is the four-level investment recommendation.
type RecommendationTier string

const (
	TierExcellent RecommendationTier = "excellent"
	TierGood      RecommendationTier = "good"
	TierFair      RecommendationTier = "fair"
	TierPoor      RecommendationTier = "poor"
)

// InvestmentIndex blends safety and convenience into a recommendation.
// Derived and stateless.
type InvestmentIndex struct {
	AreaID      string             `json:"area_id"`
	Safety      float64            `json:"safety"`
	Convenience float64            `json:"convenience"`
	Combined    float64            `json:"combined_score"`
	Tier        RecommendationTier `json:"recommendation_tier"`
	Confidence  float64            `json:"confidence"`
	Provenance  Provenance         `json:"provenance"`
}

// Clamp bounds v to the inclusive [lo, hi] range.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
