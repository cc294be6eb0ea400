// Package engine exposes the scoring façade over an immutable reference
// data snapshot.
package engine

import (
	"github.com/google/uuid"

	"github.com/homescout-au/suburbscore/internal/jurisdiction"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/neighbor"
	"github.com/homescout-au/suburbscore/internal/severity"
)

// SnapshotInput carries everything a loader hands to the engine. The
// loader produces inputs; the engine owns derived structures.
type SnapshotInput struct {
	Areas            []model.Area
	Offenses         []model.OffenseRecord
	Jurisdictions    []jurisdiction.Jurisdiction
	ExplicitMappings map[string]string // area id -> jurisdiction id
	Facilities       []model.FacilityPoint
	Demographics     map[string]model.Score // area id -> real demographic index
	Trends           map[string]model.Trend // area id -> real trend
	Profile          severity.Profile
	RadiusKM         float64
	DecayKM          float64
	SeverityK        float64
}

// Snapshot is the immutable reference dataset the engine scores against.
// It is built once by BuildSnapshot and never mutated; refreshes construct
// a new snapshot and swap it in atomically.
type Snapshot struct {
	Version string

	areas    map[string]model.Area
	areaList []model.Area

	resolver     *neighbor.Engine
	jurisdiction *jurisdiction.Resolver

	crimeByJurisdiction map[string]severity.Result
	crimeByArea         map[string]model.Score
	stateDefaultCrime   float64

	facilities   []model.FacilityPoint
	demographics map[string]model.Score
	trends       map[string]model.Trend
	profile      severity.Profile
}

// BuildSnapshot validates the input, precomputes per-jurisdiction crime
// indexes and per-area blended crime scores, and returns an immutable
// snapshot with a fresh version id.
func BuildSnapshot(in SnapshotInput) (*Snapshot, error) {
	profile := in.Profile
	if profile == nil {
		profile = severity.DefaultProfile()
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	s := &Snapshot{
		Version:      uuid.NewString(),
		areas:        make(map[string]model.Area, len(in.Areas)),
		areaList:     in.Areas,
		facilities:   in.Facilities,
		demographics: in.Demographics,
		trends:       in.Trends,
		profile:      profile,
		jurisdiction: jurisdiction.NewResolver(in.Jurisdictions, in.ExplicitMappings),
	}
	for _, a := range in.Areas {
		s.areas[a.ID] = a
	}

	s.resolver = neighbor.NewEngine(neighbor.NewIndex(in.Areas, in.RadiusKM), in.RadiusKM, in.DecayKM)

	// Per-jurisdiction crime indexes. Source rows mix annual totals
	// (quarter 0) with the quarterly rows they already include, so the
	// records are collapsed to one annual total per offense and year, and
	// each jurisdiction is scored on its latest data year only.
	byJurisdiction := make(map[string][]model.OffenseRecord)
	for _, r := range model.AnnualOffenses(in.Offenses) {
		byJurisdiction[r.Jurisdiction] = append(byJurisdiction[r.Jurisdiction], r)
	}
	s.crimeByJurisdiction = make(map[string]severity.Result, len(byJurisdiction))
	var indexSum float64
	for jid, records := range byJurisdiction {
		res := severity.CrimeIndex(latestYearRecords(records), profile, in.SeverityK)
		s.crimeByJurisdiction[jid] = res
		indexSum += res.Index
	}

	// State-wide default for unresolvable areas: the mean jurisdiction
	// index, or mid-scale when no crime data is loaded at all. Never an
	// edge value that would fabricate certainty.
	if len(s.crimeByJurisdiction) > 0 {
		s.stateDefaultCrime = indexSum / float64(len(s.crimeByJurisdiction))
	} else {
		s.stateDefaultCrime = 5.5
	}

	// Blended per-area crime scores, reused by neighbor influence.
	s.crimeByArea = make(map[string]model.Score, len(in.Areas))
	for _, a := range in.Areas {
		s.crimeByArea[a.ID] = s.blendCrime(a)
	}

	return s, nil
}

// latestYearRecords filters records to the most recent year present.
func latestYearRecords(records []model.OffenseRecord) []model.OffenseRecord {
	latest := model.LatestYear(records)
	out := make([]model.OffenseRecord, 0, len(records))
	for _, r := range records {
		if r.Year == latest {
			out = append(out, r)
		}
	}
	return out
}

// blendCrime resolves an area's jurisdictions and blends their indexes.
func (s *Snapshot) blendCrime(a model.Area) model.Score {
	matches := s.jurisdiction.Resolve(a)

	indexes := make(map[string]float64, len(matches))
	confScale := 1.0
	for _, m := range matches {
		if res, ok := s.crimeByJurisdiction[m.JurisdictionID]; ok {
			indexes[m.JurisdictionID] = res.Index
			// Rejected offense rows in the source degrade downstream trust.
			if res.Confidence < confScale {
				confScale = res.Confidence
			}
		}
	}

	score := jurisdiction.BlendedCrimeIndex(matches, indexes, s.stateDefaultCrime)
	score.Confidence *= confScale
	return score
}

// Area returns the area for an id.
func (s *Snapshot) Area(id string) (model.Area, bool) {
	a, ok := s.areas[id]
	return a, ok
}

// Areas returns all areas in load order.
func (s *Snapshot) Areas() []model.Area { return s.areaList }

// Coverage reports jurisdiction resolution statistics over the area set.
func (s *Snapshot) Coverage() jurisdiction.CoverageStats {
	return s.jurisdiction.Coverage(s.areaList)
}

// RealDataCounts reports how many areas have real demographic and trend
// data; the remainder fall back to synthetic values when scored.
func (s *Snapshot) RealDataCounts() (demographics, trends int) {
	for _, a := range s.areaList {
		if _, ok := s.demographics[a.ID]; ok {
			demographics++
		}
		if _, ok := s.trends[a.ID]; ok {
			trends++
		}
	}
	return demographics, trends
}

// FacilityCounts returns the facility tally per category.
func (s *Snapshot) FacilityCounts() map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for _, f := range s.facilities {
		counts[f.Category]++
	}
	return counts
}
