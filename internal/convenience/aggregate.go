// Package convenience combines per-category accessibility scores into a
// single convenience score.
package convenience

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/homescout-au/suburbscore/internal/model"
)

// Weights holds the per-category weights. They must sum to exactly 1.0.
type Weights map[model.Category]float64

// DefaultWeights returns the standard category split.
func DefaultWeights() Weights {
	return Weights{
		model.CategoryTransport:  0.40,
		model.CategoryEducation:  0.20,
		model.CategoryHealth:     0.15,
		model.CategoryRecreation: 0.15,
		model.CategoryShopping:   0.10,
	}
}

// Validate checks the weight table covers every category, carries no
// negatives, and sums to 1.0. Fatal at startup.
func (w Weights) Validate() error {
	var errs []string
	var sum float64
	for _, cat := range model.Categories {
		v, ok := w[cat]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing weight for %s", cat))
			continue
		}
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", cat))
		}
		sum += v
	}
	if len(w) != len(model.Categories) {
		errs = append(errs, "weight table has unknown categories")
	}
	if math.Abs(sum-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %v", sum))
	}
	if len(errs) > 0 {
		return eris.Wrap(model.ErrConfiguration, "convenience: "+strings.Join(errs, "; "))
	}
	return nil
}

// Aggregator combines category scores using a validated weight table.
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

// Aggregate combines the per-category scores. Value and confidence use the
// same weights but are computed independently; a missing category counts
// as the worst score with zero confidence rather than aborting.
func (a *Aggregator) Aggregate(areaID string, components map[model.Category]model.Score, prov model.Provenance) model.ConvenienceScore {
	if components == nil {
		components = make(map[model.Category]model.Score, len(model.Categories))
	}

	var overall, confidence float64
	anyFallback := false

	for _, cat := range model.Categories {
		w := a.weights[cat]
		s, ok := components[cat]
		if !ok {
			s = model.Score{Value: 1, Confidence: 0, HigherIsBetter: true}
			components[cat] = s
		}
		overall += w * s.Value
		confidence += w * s.Confidence
		if s.Confidence == 0 {
			anyFallback = true
		}
	}

	if anyFallback {
		prov.Fallback = true
		confidence = math.Min(confidence, 0.99)
	}

	return model.ConvenienceScore{
		AreaID:     areaID,
		Overall:    model.Round1(model.Clamp(overall, 1, 10)),
		Confidence: model.Clamp(confidence, 0, 1),
		Components: components,
		Provenance: prov,
	}
}
