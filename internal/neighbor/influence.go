package neighbor

import (
	"math"

	"github.com/homescout-au/suburbscore/internal/model"
)

// Default query parameters.
const (
	DefaultRadiusKM = 20.0
	DefaultDecayKM  = 8.0
)

// fallbackConfidence is applied when an area has no neighbors in range and
// the influence value falls back to the area's own attribute.
const fallbackConfidence = 0.3

// Influence is a distance-decayed weighted average of a per-area attribute
// over the target's neighborhood.
type Influence struct {
	Value         float64 `json:"value"`
	Confidence    float64 `json:"confidence"`
	NeighborCount int     `json:"neighbor_count"`
	Fallback      bool    `json:"fallback"` // no neighbors in radius, used own attribute
}

// Engine computes neighbor influence over an indexed area set.
type Engine struct {
	index    *Index
	radiusKM float64
	decayKM  float64
}

// NewEngine creates an influence engine. Non-positive radius or decay fall
// back to the defaults.
func NewEngine(index *Index, radiusKM, decayKM float64) *Engine {
	if radiusKM <= 0 {
		radiusKM = DefaultRadiusKM
	}
	if decayKM <= 0 {
		decayKM = DefaultDecayKM
	}
	return &Engine{index: index, radiusKM: radiusKM, decayKM: decayKM}
}

// For computes the influence of the target's neighborhood on the scalar
// attribute returned by attr. Each neighbor within the radius contributes
// with weight e^(-distance/decay); the result is the weighted average
// sum(w*x)/sum(w).
//
// With zero neighbors in range the value falls back to the target's own
// attribute with a confidence penalty; it never errors and never returns a
// silent zero.
func (e *Engine) For(target model.Area, attr func(model.Area) float64) Influence {
	neighbors := e.index.Within(target.Latitude, target.Longitude, e.radiusKM, target.ID)

	if len(neighbors) == 0 {
		return Influence{
			Value:      attr(target),
			Confidence: fallbackConfidence,
			Fallback:   true,
		}
	}

	var weightSum, valueSum float64
	for _, n := range neighbors {
		w := math.Exp(-n.DistanceKM / e.decayKM)
		weightSum += w
		valueSum += w * attr(n.Area)
	}

	// Confidence grows with neighborhood size, saturating at 5 neighbors.
	conf := math.Min(1, float64(len(neighbors))/5)

	return Influence{
		Value:         valueSum / weightSum,
		Confidence:    conf,
		NeighborCount: len(neighbors),
	}
}

// Radius returns the configured query radius in kilometers.
func (e *Engine) Radius() float64 { return e.radiusKM }
