package jurisdiction

import "github.com/homescout-au/suburbscore/internal/model"

// CoverageStats summarizes how much of an area set resolves to at least one
// district. Used for monitoring; a low fraction means crime scores are
// mostly running on the state-wide fallback.
type CoverageStats struct {
	Areas      int            `json:"areas"`
	Resolved   int            `json:"resolved"`
	Fraction   float64        `json:"fraction"`
	BySource   map[Source]int `json:"by_source"`
	Unresolved []string       `json:"unresolved,omitempty"` // area ids, capped
}

// maxUnresolvedSample caps the unresolved id sample in stats output.
const maxUnresolvedSample = 25

// Coverage computes resolution statistics over an area set.
func (r *Resolver) Coverage(areas []model.Area) CoverageStats {
	stats := CoverageStats{
		Areas:    len(areas),
		BySource: make(map[Source]int),
	}
	for _, a := range areas {
		matches := r.Resolve(a)
		if len(matches) == 0 {
			if len(stats.Unresolved) < maxUnresolvedSample {
				stats.Unresolved = append(stats.Unresolved, a.ID)
			}
			continue
		}
		stats.Resolved++
		stats.BySource[matches[0].Source]++
	}
	if stats.Areas > 0 {
		stats.Fraction = float64(stats.Resolved) / float64(stats.Areas)
	}
	return stats
}
