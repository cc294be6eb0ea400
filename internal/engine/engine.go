package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/homescout-au/suburbscore/internal/convenience"
	"github.com/homescout-au/suburbscore/internal/invest"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/proximity"
	"github.com/homescout-au/suburbscore/internal/safety"
	"github.com/homescout-au/suburbscore/internal/synthetic"
)

// Params tunes the engine. Zero values take defaults.
type Params struct {
	Workers        int           // batch pool size
	PerAreaTimeout time.Duration // batch per-area budget
}

const (
	defaultWorkers        = 8
	defaultPerAreaTimeout = 2 * time.Second
)

// scoringState pairs a snapshot with the cache of ratings computed from
// it. The engine publishes the pair through one pointer, so a scorer can
// never observe a snapshot alongside another snapshot's cache.
type scoringState struct {
	snap  *Snapshot
	cache *resultCache
}

// Engine scores areas against the current reference snapshot. Scoring is
// pure compute over immutable data; Swap is the only mutation and it
// replaces the snapshot and result cache wholesale.
type Engine struct {
	state atomic.Pointer[scoringState]

	safetyAgg *safety.Aggregator
	convAgg   *convenience.Aggregator
	proxim    *proximity.Scorer
	combiner  *invest.Combiner
	synth     *synthetic.Provider

	params Params
}

// New wires the engine from validated aggregators and an initial snapshot.
func New(snap *Snapshot, safetyAgg *safety.Aggregator, convAgg *convenience.Aggregator, proxim *proximity.Scorer, params Params) *Engine {
	if params.Workers <= 0 {
		params.Workers = defaultWorkers
	}
	if params.PerAreaTimeout <= 0 {
		params.PerAreaTimeout = defaultPerAreaTimeout
	}
	e := &Engine{
		safetyAgg: safetyAgg,
		convAgg:   convAgg,
		proxim:    proxim,
		combiner:  invest.NewCombiner(),
		synth:     synthetic.NewProvider(),
		params:    params,
	}
	e.state.Store(&scoringState{snap: snap, cache: newResultCache(snap.Version)})
	return e
}

// Snapshot returns the current reference snapshot.
func (e *Engine) Snapshot() *Snapshot { return e.state.Load().snap }

// Swap atomically replaces the reference snapshot. In-flight scorings
// finish against the snapshot they started with; the result cache is
// invalidated wholesale, never partially.
func (e *Engine) Swap(snap *Snapshot) {
	e.state.Store(&scoringState{snap: snap, cache: newResultCache(snap.Version)})
	zap.L().Info("engine: snapshot swapped",
		zap.String("version", snap.Version),
		zap.Int("areas", len(snap.areaList)),
	)
}

// ScoreSafety computes the safety rating for an area.
func (e *Engine) ScoreSafety(ctx context.Context, areaID string) (model.SafetyRating, error) {
	st := e.state.Load()

	if r, ok := st.cache.getSafety(areaID); ok {
		return r, nil
	}

	area, ok := st.snap.Area(areaID)
	if !ok {
		return model.SafetyRating{}, eris.Wrapf(model.ErrUnknownArea, "engine: score safety %q", areaID)
	}
	if err := ctx.Err(); err != nil {
		return model.SafetyRating{}, err
	}

	rating := e.scoreSafety(st.snap, area)
	st.cache.putSafety(areaID, rating)
	return rating, nil
}

// scoreSafety assembles the four safety components for an area.
func (e *Engine) scoreSafety(snap *Snapshot, area model.Area) model.SafetyRating {
	var prov model.Provenance

	crime := snap.crimeByArea[area.ID]
	if crime.Confidence == 0 {
		prov.Fallback = true
	}

	demographic, ok := snap.demographics[area.ID]
	if !ok {
		demographic = e.synth.DemographicIndex(area.ID)
		prov.Synthetic = true
	}

	// Neighborhood influence over the neighbors' own crime scores.
	influence := snap.resolver.For(area, func(n model.Area) float64 {
		return snap.crimeByArea[n.ID].Value
	})
	neighborhood := model.Score{
		Value:          influence.Value,
		Confidence:     influence.Confidence,
		HigherIsBetter: true,
	}
	if influence.Fallback {
		prov.Fallback = true
	}

	trendClass, ok := snap.trends[area.ID]
	if !ok {
		trendClass = e.synth.Trend(area.ID)
		prov.Synthetic = true
	}
	trend := safety.TrendScore(trendClass)
	if !ok && trend.Confidence > 0.5 {
		// Synthetic trends never carry real-data confidence.
		trend.Confidence = 0.5
	}

	return e.safetyAgg.Aggregate(area.ID, model.SafetyComponents{
		Crime:        crime,
		Demographic:  demographic,
		Neighborhood: neighborhood,
		Trend:        trend,
	}, prov)
}

// ScoreConvenience computes the convenience score at a point.
func (e *Engine) ScoreConvenience(ctx context.Context, lat, lng float64) (model.ConvenienceScore, error) {
	if !model.ValidCoordinates(lat, lng) {
		return model.ConvenienceScore{}, eris.Wrapf(model.ErrOutOfRange, "engine: score convenience (%v, %v)", lat, lng)
	}
	if err := ctx.Err(); err != nil {
		return model.ConvenienceScore{}, err
	}

	snap := e.state.Load().snap
	components := e.proxim.ScoreAll(lat, lng, snap.facilities)

	var prov model.Provenance
	for _, s := range components {
		if s.Confidence == 0 {
			prov.Fallback = true
			break
		}
	}
	return e.convAgg.Aggregate("", components, prov), nil
}

// ScoreCombined blends safety and convenience for an area.
func (e *Engine) ScoreCombined(ctx context.Context, areaID string) (model.InvestmentIndex, error) {
	snap := e.state.Load().snap

	area, ok := snap.Area(areaID)
	if !ok {
		return model.InvestmentIndex{}, eris.Wrapf(model.ErrUnknownArea, "engine: score combined %q", areaID)
	}

	safetyRating, err := e.ScoreSafety(ctx, areaID)
	if err != nil {
		return model.InvestmentIndex{}, err
	}
	conv, err := e.ScoreConvenience(ctx, area.Latitude, area.Longitude)
	if err != nil {
		return model.InvestmentIndex{}, err
	}
	conv.AreaID = areaID

	return e.combiner.Combine(safetyRating, conv), nil
}

// ScoreBatch scores many areas concurrently on a bounded pool. The result
// slice preserves input order; unresolvable ids yield a null-confidence
// record instead of failing the batch.
func (e *Engine) ScoreBatch(ctx context.Context, areaIDs []string) ([]model.SafetyRating, error) {
	results := make([]model.SafetyRating, len(areaIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Workers)

	for i, id := range areaIDs {
		g.Go(func() error {
			areaCtx, cancel := context.WithTimeout(gctx, e.params.PerAreaTimeout)
			defer cancel()

			rating, err := e.ScoreSafety(areaCtx, id)
			if err != nil {
				if !eris.Is(err, model.ErrUnknownArea) {
					zap.L().Warn("engine: batch area failed",
						zap.String("area_id", id),
						zap.Error(err),
					)
				}
				// Null-confidence placeholder keeps the batch aligned.
				results[i] = model.SafetyRating{AreaID: id, Confidence: 0}
				return nil
			}
			results[i] = rating
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: score batch")
	}
	return results, nil
}
