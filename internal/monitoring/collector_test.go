package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/homescout-au/suburbscore/internal/convenience"
	"github.com/homescout-au/suburbscore/internal/engine"
	"github.com/homescout-au/suburbscore/internal/jurisdiction"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/proximity"
	"github.com/homescout-au/suburbscore/internal/refstore"
	"github.com/homescout-au/suburbscore/internal/safety"
)

type fakeRunLister struct {
	runs []refstore.IngestRun
}

func (f *fakeRunLister) ListIngestRuns(ctx context.Context, limit int) ([]refstore.IngestRun, error) {
	return f.runs, nil
}

func testCollectorEngine(t *testing.T) *engine.Engine {
	t.Helper()

	snap, err := engine.BuildSnapshot(engine.SnapshotInput{
		Areas: []model.Area{
			{ID: "perth", Name: "Perth", Latitude: -31.9523, Longitude: 115.8613},
			{ID: "karratha", Name: "Karratha", Latitude: -20.7364, Longitude: 116.8464},
		},
		Jurisdictions: []jurisdiction.Jurisdiction{
			{ID: "perth-district", Name: "Perth District", Bounds: geom.NewBounds(geom.XY).Set(115.7, -32.1, 116.0, -31.8)},
		},
		Facilities: []model.FacilityPoint{
			{ID: "stn-perth", Category: model.CategoryTransport, Latitude: -31.9508, Longitude: 115.8605},
		},
		Demographics: map[string]model.Score{
			"perth": {Value: 7.0, Confidence: 1, HigherIsBetter: true},
		},
	})
	require.NoError(t, err)

	safetyAgg, err := safety.NewAggregator(safety.DefaultWeights())
	require.NoError(t, err)
	convAgg, err := convenience.NewAggregator(convenience.DefaultWeights())
	require.NoError(t, err)
	proxim, err := proximity.NewScorer(nil)
	require.NoError(t, err)

	return engine.New(snap, safetyAgg, convAgg, proxim, engine.Params{})
}

func TestCollectorCollect(t *testing.T) {
	e := testCollectorEngine(t)
	lister := &fakeRunLister{runs: []refstore.IngestRun{
		{Source: "crime-workbook", Rows: 90, Rejected: 10, FinishedAt: time.Now()},
	}}

	c := NewCollector(e, lister)
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.SnapshotVersion)
	assert.Equal(t, 2, snap.Areas)
	// Karratha sits outside the only district bounds.
	assert.InDelta(t, 0.5, snap.CoverageFraction, 0.001)
	assert.Equal(t, 1, snap.Unresolved)
	// One of two areas has real demographics, neither has a trend.
	assert.InDelta(t, 0.5, snap.SyntheticDemographicShare, 0.001)
	assert.InDelta(t, 1.0, snap.SyntheticTrendShare, 0.001)
	assert.Equal(t, 1, snap.FacilityCounts[model.CategoryTransport])
	assert.Equal(t, 0, snap.FacilityCounts[model.CategoryHealth])
	assert.Equal(t, 1, snap.IngestRuns)
	assert.InDelta(t, 0.1, snap.IngestRejectRate, 0.001)
}

func TestCollectorCollectWithoutStore(t *testing.T) {
	c := NewCollector(testCollectorEngine(t), nil)

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.IngestRuns)
	assert.InDelta(t, 0.0, snap.IngestRejectRate, 0.001)
}

func TestCheckerStopsOnCancel(t *testing.T) {
	c := NewChecker(NewCollector(testCollectorEngine(t), nil), NewAlerter(testThresholds()), testThresholds())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("checker did not stop after cancel")
	}
}
