// Package proximity scores facility accessibility from distance-tiered
// facility counts. One table-driven scorer covers every category; only the
// tier tables differ.
package proximity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/neighbor"
)

// CountThreshold adds an increment once the tier holds at least MinCount
// facilities.
type CountThreshold struct {
	MinCount  int     `yaml:"min_count" mapstructure:"min_count"`
	Increment float64 `yaml:"increment" mapstructure:"increment"`
}

// Tier is a distance band with its count thresholds. Bands are cumulative:
// a facility 0.8km away counts toward the <1km tier and every wider one.
type Tier struct {
	RadiusKM   float64          `yaml:"radius_km" mapstructure:"radius_km"`
	Thresholds []CountThreshold `yaml:"thresholds" mapstructure:"thresholds"`
}

// CategoryConfig is the tier table for one facility category.
type CategoryConfig struct {
	Tiers []Tier `yaml:"tiers" mapstructure:"tiers"`

	// DiversityBonus is added once the innermost tier holds facilities
	// with at least DiversityMinIDs distinct ids.
	DiversityBonus  float64 `yaml:"diversity_bonus" mapstructure:"diversity_bonus"`
	DiversityMinIDs int     `yaml:"diversity_min_ids" mapstructure:"diversity_min_ids"`
}

// Validate checks the tier table is usable.
func (c CategoryConfig) Validate() error {
	var errs []string
	if len(c.Tiers) == 0 {
		errs = append(errs, "no tiers configured")
	}
	lastRadius := 0.0
	for i, tier := range c.Tiers {
		if tier.RadiusKM <= lastRadius {
			errs = append(errs, fmt.Sprintf("tier %d radius %.2f must grow outward", i, tier.RadiusKM))
		}
		lastRadius = tier.RadiusKM
		if len(tier.Thresholds) == 0 {
			errs = append(errs, fmt.Sprintf("tier %d has no thresholds", i))
		}
		for _, th := range tier.Thresholds {
			if th.MinCount < 1 || th.Increment < 0 {
				errs = append(errs, fmt.Sprintf("tier %d has invalid threshold %+v", i, th))
			}
		}
	}
	if len(errs) > 0 {
		return eris.Wrap(model.ErrConfiguration, "proximity: "+strings.Join(errs, "; "))
	}
	return nil
}

// MaxRadiusKM returns the widest tier radius.
func (c CategoryConfig) MaxRadiusKM() float64 {
	if len(c.Tiers) == 0 {
		return 0
	}
	return c.Tiers[len(c.Tiers)-1].RadiusKM
}

// DefaultConfigs returns the per-category tier tables. Transport gets the
// tightest inner band (a stop around the corner matters more than a pool).
func DefaultConfigs() map[model.Category]CategoryConfig {
	walkable := []Tier{
		{RadiusKM: 1, Thresholds: []CountThreshold{{MinCount: 1, Increment: 3.0}, {MinCount: 3, Increment: 1.5}}},
		{RadiusKM: 2, Thresholds: []CountThreshold{{MinCount: 2, Increment: 1.5}, {MinCount: 5, Increment: 1.0}}},
		{RadiusKM: 5, Thresholds: []CountThreshold{{MinCount: 5, Increment: 1.0}, {MinCount: 10, Increment: 1.0}}},
	}
	drivable := []Tier{
		{RadiusKM: 1, Thresholds: []CountThreshold{{MinCount: 1, Increment: 2.5}}},
		{RadiusKM: 2, Thresholds: []CountThreshold{{MinCount: 1, Increment: 2.0}, {MinCount: 3, Increment: 1.5}}},
		{RadiusKM: 5, Thresholds: []CountThreshold{{MinCount: 3, Increment: 1.5}, {MinCount: 8, Increment: 1.5}}},
	}
	return map[model.Category]CategoryConfig{
		model.CategoryTransport:  {Tiers: walkable, DiversityBonus: 1.0, DiversityMinIDs: 4},
		model.CategoryShopping:   {Tiers: drivable, DiversityBonus: 0.5, DiversityMinIDs: 3},
		model.CategoryEducation:  {Tiers: drivable, DiversityBonus: 0.5, DiversityMinIDs: 2},
		model.CategoryHealth:     {Tiers: drivable, DiversityBonus: 0.5, DiversityMinIDs: 2},
		model.CategoryRecreation: {Tiers: drivable, DiversityBonus: 0.5, DiversityMinIDs: 3},
	}
}

// Scorer computes per-category accessibility scores from facility sets.
type Scorer struct {
	configs map[model.Category]CategoryConfig
}

// NewScorer validates every category table and returns a scorer.
func NewScorer(configs map[model.Category]CategoryConfig) (*Scorer, error) {
	if len(configs) == 0 {
		configs = DefaultConfigs()
	}
	for cat, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, eris.Wrapf(err, "proximity: category %s", cat)
		}
	}
	return &Scorer{configs: configs}, nil
}

// ScoreCategory scores one category at the given point. The score starts
// at 1 (worst), gains each satisfied threshold increment, and is clamped
// to [1,10]. Confidence is 1 when the category dataset has any facility
// within the widest tier, 0 otherwise.
func (s *Scorer) ScoreCategory(lat, lng float64, cat model.Category, facilities []model.FacilityPoint) model.Score {
	cfg, ok := s.configs[cat]
	if !ok {
		return model.Score{Value: 1, Confidence: 0, HigherIsBetter: true}
	}

	// Distances once, sorted; tier counts are then prefix counts.
	dists := make([]float64, 0, len(facilities))
	innerIDs := make(map[string]struct{})
	innerRadius := cfg.Tiers[0].RadiusKM
	for _, f := range facilities {
		if f.Category != cat {
			continue
		}
		d := neighbor.HaversineKM(lat, lng, f.Latitude, f.Longitude)
		if d > cfg.MaxRadiusKM() {
			continue
		}
		dists = append(dists, d)
		if d <= innerRadius {
			innerIDs[f.ID] = struct{}{}
		}
	}
	sort.Float64s(dists)

	score := 1.0
	for _, tier := range cfg.Tiers {
		count := countWithin(dists, tier.RadiusKM)
		for _, th := range tier.Thresholds {
			if count >= th.MinCount {
				score += th.Increment
			}
		}
	}
	if cfg.DiversityMinIDs > 0 && len(innerIDs) >= cfg.DiversityMinIDs {
		score += cfg.DiversityBonus
	}

	conf := 0.0
	if len(dists) > 0 {
		conf = 1.0
	}

	return model.Score{
		Value:          model.Clamp(score, 1, 10),
		Confidence:     conf,
		HigherIsBetter: true,
	}
}

// ScoreAll scores every configured category at the given point.
func (s *Scorer) ScoreAll(lat, lng float64, facilities []model.FacilityPoint) map[model.Category]model.Score {
	out := make(map[model.Category]model.Score, len(s.configs))
	for cat := range s.configs {
		out[cat] = s.ScoreCategory(lat, lng, cat, facilities)
	}
	return out
}

// countWithin counts sorted distances <= radius.
func countWithin(sorted []float64, radius float64) int {
	return sort.SearchFloat64s(sorted, radius+1e-9)
}
