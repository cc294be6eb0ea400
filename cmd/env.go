package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/convenience"
	"github.com/homescout-au/suburbscore/internal/engine"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/proximity"
	"github.com/homescout-au/suburbscore/internal/refstore"
	"github.com/homescout-au/suburbscore/internal/safety"
	"github.com/homescout-au/suburbscore/internal/severity"
)

// env bundles the opened store and the scoring engine for a command run.
type env struct {
	store  *refstore.Store
	engine *engine.Engine
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// initEngine opens the reference store, builds the initial snapshot, and
// wires the scoring engine from configuration.
func initEngine(ctx context.Context) (*env, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	input, err := snapshotInput(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	snap, err := engine.BuildSnapshot(input)
	if err != nil {
		store.Close()
		return nil, err
	}

	safetyAgg, err := safety.NewAggregator(safetyWeights())
	if err != nil {
		store.Close()
		return nil, err
	}
	convAgg, err := convenience.NewAggregator(convenienceWeights())
	if err != nil {
		store.Close()
		return nil, err
	}
	proxim, err := proximity.NewScorer(nil)
	if err != nil {
		store.Close()
		return nil, err
	}

	eng := engine.New(snap, safetyAgg, convAgg, proxim, engine.Params{
		Workers:        cfg.Batch.Workers,
		PerAreaTimeout: time.Duration(cfg.Batch.PerAreaTimeoutSecs) * time.Second,
	})

	zap.L().Info("engine ready",
		zap.String("snapshot_version", snap.Version),
		zap.Int("areas", len(snap.Areas())),
	)
	return &env{store: store, engine: eng}, nil
}

func openStore(ctx context.Context) (*refstore.Store, error) {
	store, err := refstore.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// snapshotInput assembles a snapshot input from the store and config.
func snapshotInput(ctx context.Context, store *refstore.Store) (engine.SnapshotInput, error) {
	areas, err := store.Areas(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}
	offenses, err := store.Offenses(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}
	jurisdictions, err := store.Jurisdictions(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}
	facilities, err := store.Facilities(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}
	demographics, err := store.Demographics(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}
	trends, err := store.Trends(ctx)
	if err != nil {
		return engine.SnapshotInput{}, err
	}

	explicit := make(map[string]string)
	for _, a := range areas {
		if a.JurisdictionID != "" {
			explicit[a.ID] = a.JurisdictionID
		}
	}

	var profile severity.Profile
	if cfg.Scoring.ProfilePath != "" {
		profile, err = severity.LoadProfile(cfg.Scoring.ProfilePath)
		if err != nil {
			return engine.SnapshotInput{}, eris.Wrap(err, "load severity profile")
		}
	}

	return engine.SnapshotInput{
		Areas:            areas,
		Offenses:         offenses,
		Jurisdictions:    jurisdictions,
		ExplicitMappings: explicit,
		Facilities:       facilities,
		Demographics:     demographics,
		Trends:           trends,
		Profile:          profile,
		RadiusKM:         cfg.Scoring.NeighborRadius,
		DecayKM:          cfg.Scoring.NeighborDecay,
		SeverityK:        cfg.Scoring.SeverityK,
	}, nil
}

func safetyWeights() safety.Weights {
	return safety.Weights{
		Crime:        cfg.Safety.CrimeWeight,
		Demographic:  cfg.Safety.DemographicWeight,
		Neighborhood: cfg.Safety.NeighborhoodWeight,
		Trend:        cfg.Safety.TrendWeight,
	}
}

func convenienceWeights() convenience.Weights {
	return convenience.Weights{
		model.CategoryTransport:  cfg.Convenience.TransportWeight,
		model.CategoryShopping:   cfg.Convenience.ShoppingWeight,
		model.CategoryEducation:  cfg.Convenience.EducationWeight,
		model.CategoryHealth:     cfg.Convenience.HealthWeight,
		model.CategoryRecreation: cfg.Convenience.RecreationWeight,
	}
}
