// Package safety combines crime, demographic, neighborhood, and trend
// signals into a single 1-10 safety rating.
package safety

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/homescout-au/suburbscore/internal/model"
)

// Weights holds the component weights for the safety aggregation.
type Weights struct {
	Crime        float64 `yaml:"crime" mapstructure:"crime"`
	Demographic  float64 `yaml:"demographic" mapstructure:"demographic"`
	Neighborhood float64 `yaml:"neighborhood" mapstructure:"neighborhood"`
	Trend        float64 `yaml:"trend" mapstructure:"trend"`
}

// DefaultWeights returns the standard 50/25/15/10 split.
func DefaultWeights() Weights {
	return Weights{Crime: 0.50, Demographic: 0.25, Neighborhood: 0.15, Trend: 0.10}
}

// Validate checks the weights are non-negative and sum to exactly 1.0.
// An unbalanced table would silently bias every rating, so this is fatal
// at startup.
func (w Weights) Validate() error {
	var errs []string
	for name, v := range map[string]float64{
		"crime": w.Crime, "demographic": w.Demographic,
		"neighborhood": w.Neighborhood, "trend": w.Trend,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}
	if sum := w.Crime + w.Demographic + w.Neighborhood + w.Trend; math.Abs(sum-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %v", sum))
	}
	if len(errs) > 0 {
		return eris.Wrap(model.ErrConfiguration,
			"safety: "+strings.Join(errs, "; "))
	}
	return nil
}

// Trend index values per classification.
const (
	trendDecreasingValue = 8.5
	trendStableValue     = 7.0
	trendIncreasingValue = 4.5
)

// TrendScore maps a trend classification to its index value. Unknown
// trends use the stable value with zero confidence rather than failing.
func TrendScore(t model.Trend) model.Score {
	switch t {
	case model.TrendDecreasing:
		return model.Score{Value: trendDecreasingValue, Confidence: 1, HigherIsBetter: true}
	case model.TrendStable:
		return model.Score{Value: trendStableValue, Confidence: 1, HigherIsBetter: true}
	case model.TrendIncreasing:
		return model.Score{Value: trendIncreasingValue, Confidence: 1, HigherIsBetter: true}
	default:
		return model.Score{Value: trendStableValue, Confidence: 0, HigherIsBetter: true}
	}
}

// Aggregator computes safety ratings from component scores.
type Aggregator struct {
	weights Weights
}

// NewAggregator validates the weights and returns an aggregator.
func NewAggregator(w Weights) (*Aggregator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{weights: w}, nil
}

// Aggregate combines the component scores into an overall rating. Values
// and confidences are weighted identically but computed independently: a
// zero-confidence component still contributes its (fallback) value while
// dragging the overall confidence down. The aggregator never aborts on
// partial data.
func (a *Aggregator) Aggregate(areaID string, c model.SafetyComponents, prov model.Provenance) model.SafetyRating {
	w := a.weights

	overall := w.Crime*c.Crime.Value +
		w.Demographic*c.Demographic.Value +
		w.Neighborhood*c.Neighborhood.Value +
		w.Trend*c.Trend.Value

	confidence := w.Crime*c.Crime.Confidence +
		w.Demographic*c.Demographic.Confidence +
		w.Neighborhood*c.Neighborhood.Confidence +
		w.Trend*c.Trend.Confidence

	if anyFallback(c) {
		prov.Fallback = true
		// A fallback component must be visible to callers: confidence
		// stays strictly below 1.
		confidence = math.Min(confidence, 0.99)
	}

	return model.SafetyRating{
		AreaID:     areaID,
		Overall:    model.Round1(model.Clamp(overall, 1, 10)),
		Confidence: model.Clamp(confidence, 0, 1),
		Components: c,
		Provenance: prov,
	}
}

func anyFallback(c model.SafetyComponents) bool {
	for _, s := range []model.Score{c.Crime, c.Demographic, c.Neighborhood, c.Trend} {
		if s.Confidence == 0 {
			return true
		}
	}
	return false
}
