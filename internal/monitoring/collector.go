// Package monitoring collects data quality metrics for the scoring engine
// and alerts on degraded reference data.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/homescout-au/suburbscore/internal/engine"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/refstore"
)

// MetricsSnapshot holds a point-in-time view of data quality and
// engine health.
type MetricsSnapshot struct {
	// Snapshot metadata.
	SnapshotVersion string `json:"snapshot_version"`
	Areas           int    `json:"areas"`

	// Jurisdiction coverage.
	CoverageFraction float64 `json:"coverage_fraction"`
	Unresolved       int     `json:"unresolved"`

	// Share of areas scored without real data.
	SyntheticDemographicShare float64 `json:"synthetic_demographic_share"`
	SyntheticTrendShare       float64 `json:"synthetic_trend_share"`

	// Facility inventory per category.
	FacilityCounts map[model.Category]int `json:"facility_counts"`

	// Result cache occupancy for the current snapshot.
	CacheEntries int `json:"cache_entries"`

	// Ingest quality over the most recent runs.
	IngestRuns       int     `json:"ingest_runs"`
	IngestRejectRate float64 `json:"ingest_reject_rate"`

	CollectedAt time.Time `json:"collected_at"`
}

// IngestRunLister abstracts the refstore method needed by the collector.
type IngestRunLister interface {
	ListIngestRuns(ctx context.Context, limit int) ([]refstore.IngestRun, error)
}

// Collector gathers metrics from the engine and the reference store.
type Collector struct {
	engine *engine.Engine
	runs   IngestRunLister
}

// NewCollector creates a new metrics collector. runs may be nil when no
// store is attached.
func NewCollector(e *engine.Engine, runs IngestRunLister) *Collector {
	return &Collector{engine: e, runs: runs}
}

// Collect gathers a point-in-time data quality snapshot.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := c.engine.Snapshot()
	version, cacheEntries := c.engine.CacheStats()

	out := &MetricsSnapshot{
		SnapshotVersion: version,
		Areas:           len(snap.Areas()),
		FacilityCounts:  snap.FacilityCounts(),
		CacheEntries:    cacheEntries,
		CollectedAt:     time.Now().UTC(),
	}

	coverage := snap.Coverage()
	out.CoverageFraction = coverage.Fraction
	out.Unresolved = len(coverage.Unresolved)

	if out.Areas > 0 {
		withDemo, withTrend := snap.RealDataCounts()
		out.SyntheticDemographicShare = 1 - float64(withDemo)/float64(out.Areas)
		out.SyntheticTrendShare = 1 - float64(withTrend)/float64(out.Areas)
	}

	if c.runs != nil {
		runs, err := c.runs.ListIngestRuns(ctx, 20)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list ingest runs")
		}
		out.IngestRuns = len(runs)
		var rows, rejected int
		for _, r := range runs {
			rows += r.Rows
			rejected += r.Rejected
		}
		if rows+rejected > 0 {
			out.IngestRejectRate = float64(rejected) / float64(rows+rejected)
		}
	}

	return out, nil
}
