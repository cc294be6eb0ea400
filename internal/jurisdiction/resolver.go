// Package jurisdiction maps areas onto crime-reporting police districts.
// District boundaries rarely align with suburb boundaries, so one area may
// resolve to several districts with partial coverage.
package jurisdiction

import (
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/homescout-au/suburbscore/internal/model"
)

// Match source confidences. Explicit mappings recorded at load time beat
// bounding-box membership, which beats name matching.
const (
	confExplicit = 1.0
	confBBox     = 0.8
	confName     = 0.6
)

// Source identifies how a match was resolved.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceBBox     Source = "bbox"
	SourceName     Source = "name"
)

// Jurisdiction is a crime-reporting administrative district.
type Jurisdiction struct {
	ID     string
	Name   string
	Bounds *geom.Bounds // approximate boundary; nil when unknown
}

// Match is one resolved area->jurisdiction correspondence.
type Match struct {
	JurisdictionID string  `json:"jurisdiction_id"`
	CoverageWeight float64 `json:"coverage_weight"` // [0,1], need not sum to 1 across matches
	Confidence     float64 `json:"confidence"`      // [0,1]
	Source         Source  `json:"source"`
}

// Resolver resolves areas against a fixed district set.
type Resolver struct {
	jurisdictions []Jurisdiction
	// explicit maps area id -> jurisdiction id, from loaded mappings.
	explicit map[string]string
}

// NewResolver creates a resolver over the known district set. explicit may
// be nil when no stored mappings exist.
func NewResolver(jurisdictions []Jurisdiction, explicit map[string]string) *Resolver {
	if explicit == nil {
		explicit = make(map[string]string)
	}
	return &Resolver{jurisdictions: jurisdictions, explicit: explicit}
}

// Resolve returns the jurisdictions covering an area, best source first.
// A nil result means nothing resolved; the caller must treat the crime
// index confidence as zero and fall back to the state-wide default index.
func (r *Resolver) Resolve(area model.Area) []Match {
	// Explicit stored mapping wins outright.
	if jid := r.explicitFor(area); jid != "" {
		return []Match{{
			JurisdictionID: jid,
			CoverageWeight: 1.0,
			Confidence:     confExplicit,
			Source:         SourceExplicit,
		}}
	}

	// Bounding-box membership. An area inside several overlapping boxes
	// straddles districts; coverage splits evenly across them.
	var boxed []string
	for _, j := range r.jurisdictions {
		if j.Bounds != nil && j.Bounds.OverlapsPoint(geom.XY, geom.Coord{area.Longitude, area.Latitude}) {
			boxed = append(boxed, j.ID)
		}
	}
	if len(boxed) > 0 {
		weight := 1.0 / float64(len(boxed))
		matches := make([]Match, 0, len(boxed))
		for _, id := range boxed {
			matches = append(matches, Match{
				JurisdictionID: id,
				CoverageWeight: weight,
				Confidence:     confBBox,
				Source:         SourceBBox,
			})
		}
		return matches
	}

	// Name-substring fallback.
	areaName := strings.ToLower(area.Name)
	for _, j := range r.jurisdictions {
		jName := strings.ToLower(j.Name)
		if jName == "" || areaName == "" {
			continue
		}
		if strings.Contains(areaName, jName) || strings.Contains(jName, areaName) {
			return []Match{{
				JurisdictionID: j.ID,
				CoverageWeight: 0.7, // partial coverage assumed for name-only matches
				Confidence:     confName,
				Source:         SourceName,
			}}
		}
	}

	return nil
}

func (r *Resolver) explicitFor(area model.Area) string {
	if area.JurisdictionID != "" && r.known(area.JurisdictionID) {
		return area.JurisdictionID
	}
	if jid, ok := r.explicit[area.ID]; ok && r.known(jid) {
		return jid
	}
	return ""
}

func (r *Resolver) known(jurisdictionID string) bool {
	for _, j := range r.jurisdictions {
		if j.ID == jurisdictionID {
			return true
		}
	}
	return false
}

// BlendedCrimeIndex combines per-jurisdiction crime indexes into one
// coverage-weighted index for an area. indexes maps jurisdiction id to its
// computed crime index; matches come from Resolve. The returned confidence
// blends match confidence with coverage completeness.
func BlendedCrimeIndex(matches []Match, indexes map[string]float64, stateDefault float64) model.Score {
	if len(matches) == 0 {
		// Nothing resolved: state-wide default, zero confidence. Never a
		// fabricated 0 or 10.
		return model.Score{Value: stateDefault, Confidence: 0, HigherIsBetter: true}
	}

	var weightSum, valueSum, confSum float64
	for _, m := range matches {
		idx, ok := indexes[m.JurisdictionID]
		if !ok {
			idx = stateDefault
			m.Confidence = 0
		}
		valueSum += m.CoverageWeight * idx
		confSum += m.CoverageWeight * m.Confidence
		weightSum += m.CoverageWeight
	}
	if weightSum == 0 {
		return model.Score{Value: stateDefault, Confidence: 0, HigherIsBetter: true}
	}

	// Partial coverage (weights summing below 1) lowers confidence.
	coverage := weightSum
	if coverage > 1 {
		coverage = 1
	}

	return model.Score{
		Value:          model.Clamp(valueSum/weightSum, 1, 10),
		Confidence:     model.Clamp(confSum/weightSum*coverage, 0, 1),
		HigherIsBetter: true,
	}
}
