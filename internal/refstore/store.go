// Package refstore persists reference data (areas, offenses, facilities,
// jurisdiction boundaries) between ingest runs and engine restarts.
package refstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	_ "modernc.org/sqlite"

	"github.com/homescout-au/suburbscore/internal/jurisdiction"
	"github.com/homescout-au/suburbscore/internal/model"
)

// Store is a SQLite-backed reference data store.
type Store struct {
	db *sql.DB
}

// Open opens the database at the given path and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "refstore: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS areas (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	latitude        REAL NOT NULL,
	longitude       REAL NOT NULL,
	classification  TEXT NOT NULL DEFAULT 'suburban',
	population      INTEGER NOT NULL DEFAULT 0,
	jurisdiction_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS offenses (
	jurisdiction TEXT NOT NULL,
	offense_type TEXT NOT NULL,
	year         INTEGER NOT NULL,
	quarter      INTEGER NOT NULL DEFAULT 0,
	count        INTEGER NOT NULL,
	PRIMARY KEY (jurisdiction, offense_type, year, quarter)
);

CREATE TABLE IF NOT EXISTS jurisdictions (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	min_lng REAL,
	min_lat REAL,
	max_lng REAL,
	max_lat REAL
);

CREATE TABLE IF NOT EXISTS facilities (
	id        TEXT PRIMARY KEY,
	category  TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS demographics (
	area_id    TEXT PRIMARY KEY REFERENCES areas(id),
	value      REAL NOT NULL,
	confidence REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trends (
	area_id TEXT PRIMARY KEY REFERENCES areas(id),
	trend   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	rejected    INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_offenses_jurisdiction ON offenses(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_facilities_category ON facilities(category);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_source ON ingest_runs(source);
`

// Migrate applies the schema. Safe to call repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "refstore: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAreas swaps the full area table in one transaction.
func (s *Store) ReplaceAreas(ctx context.Context, areas []model.Area) error {
	return s.replace(ctx, "areas",
		`INSERT INTO areas (id, name, latitude, longitude, classification, population, jurisdiction_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(areas), func(i int) []any {
			a := areas[i]
			return []any{a.ID, a.Name, a.Latitude, a.Longitude, string(a.Classification), a.Population, a.JurisdictionID}
		})
}

// ReplaceOffenses swaps the full offense table in one transaction.
func (s *Store) ReplaceOffenses(ctx context.Context, records []model.OffenseRecord) error {
	return s.replace(ctx, "offenses",
		`INSERT INTO offenses (jurisdiction, offense_type, year, quarter, count)
		 VALUES (?, ?, ?, ?, ?)`,
		len(records), func(i int) []any {
			r := records[i]
			return []any{r.Jurisdiction, r.OffenseType, r.Year, r.Quarter, r.Count}
		})
}

// ReplaceJurisdictions swaps the jurisdiction table. A nil Bounds persists
// as NULL coordinates and loads back as nil.
func (s *Store) ReplaceJurisdictions(ctx context.Context, districts []jurisdiction.Jurisdiction) error {
	return s.replace(ctx, "jurisdictions",
		`INSERT INTO jurisdictions (id, name, min_lng, min_lat, max_lng, max_lat)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		len(districts), func(i int) []any {
			d := districts[i]
			if d.Bounds == nil {
				return []any{d.ID, d.Name, nil, nil, nil, nil}
			}
			return []any{
				d.ID, d.Name,
				d.Bounds.Min(0), d.Bounds.Min(1),
				d.Bounds.Max(0), d.Bounds.Max(1),
			}
		})
}

// ReplaceFacilities swaps the facility table in one transaction.
func (s *Store) ReplaceFacilities(ctx context.Context, points []model.FacilityPoint) error {
	return s.replace(ctx, "facilities",
		`INSERT INTO facilities (id, category, latitude, longitude) VALUES (?, ?, ?, ?)`,
		len(points), func(i int) []any {
			f := points[i]
			return []any{f.ID, string(f.Category), f.Latitude, f.Longitude}
		})
}

// ReplaceDemographics swaps the demographic table in one transaction.
func (s *Store) ReplaceDemographics(ctx context.Context, byArea map[string]model.Score) error {
	type row struct {
		areaID string
		score  model.Score
	}
	rows := make([]row, 0, len(byArea))
	for id, sc := range byArea {
		rows = append(rows, row{id, sc})
	}
	return s.replace(ctx, "demographics",
		`INSERT INTO demographics (area_id, value, confidence) VALUES (?, ?, ?)`,
		len(rows), func(i int) []any {
			return []any{rows[i].areaID, rows[i].score.Value, rows[i].score.Confidence}
		})
}

// ReplaceTrends swaps the trend table in one transaction.
func (s *Store) ReplaceTrends(ctx context.Context, byArea map[string]model.Trend) error {
	type row struct {
		areaID string
		trend  model.Trend
	}
	rows := make([]row, 0, len(byArea))
	for id, tr := range byArea {
		rows = append(rows, row{id, tr})
	}
	return s.replace(ctx, "trends",
		`INSERT INTO trends (area_id, trend) VALUES (?, ?)`,
		len(rows), func(i int) []any {
			return []any{rows[i].areaID, string(rows[i].trend)}
		})
}

// replace deletes a table's contents and bulk-inserts replacements in a
// single transaction, so readers never observe a partially loaded table.
func (s *Store) replace(ctx context.Context, table, insert string, n int, args func(int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "refstore: begin replace %s", table)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "refstore: clear %s", table)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return eris.Wrapf(err, "refstore: prepare insert %s", table)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return eris.Wrapf(err, "refstore: insert %s row %d", table, i)
		}
	}
	return eris.Wrapf(tx.Commit(), "refstore: commit replace %s", table)
}

// Areas loads all areas in name order.
func (s *Store) Areas(ctx context.Context) ([]model.Area, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, classification, population, jurisdiction_id
		 FROM areas ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query areas")
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		var class string
		if err := rows.Scan(&a.ID, &a.Name, &a.Latitude, &a.Longitude, &class, &a.Population, &a.JurisdictionID); err != nil {
			return nil, eris.Wrap(err, "refstore: scan area")
		}
		a.Classification = model.Classification(class)
		areas = append(areas, a)
	}
	return areas, eris.Wrap(rows.Err(), "refstore: iterate areas")
}

// Offenses loads all offense records.
func (s *Store) Offenses(ctx context.Context) ([]model.OffenseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT jurisdiction, offense_type, year, quarter, count FROM offenses`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query offenses")
	}
	defer rows.Close()

	var records []model.OffenseRecord
	for rows.Next() {
		var r model.OffenseRecord
		if err := rows.Scan(&r.Jurisdiction, &r.OffenseType, &r.Year, &r.Quarter, &r.Count); err != nil {
			return nil, eris.Wrap(err, "refstore: scan offense")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "refstore: iterate offenses")
}

// Jurisdictions loads all jurisdictions with their bounding boxes.
func (s *Store) Jurisdictions(ctx context.Context) ([]jurisdiction.Jurisdiction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, min_lng, min_lat, max_lng, max_lat FROM jurisdictions ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query jurisdictions")
	}
	defer rows.Close()

	var districts []jurisdiction.Jurisdiction
	for rows.Next() {
		var d jurisdiction.Jurisdiction
		var minLng, minLat, maxLng, maxLat sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.Name, &minLng, &minLat, &maxLng, &maxLat); err != nil {
			return nil, eris.Wrap(err, "refstore: scan jurisdiction")
		}
		if minLng.Valid && minLat.Valid && maxLng.Valid && maxLat.Valid {
			d.Bounds = geom.NewBounds(geom.XY).Set(
				minLng.Float64, minLat.Float64, maxLng.Float64, maxLat.Float64)
		}
		districts = append(districts, d)
	}
	return districts, eris.Wrap(rows.Err(), "refstore: iterate jurisdictions")
}

// Facilities loads all facility points.
func (s *Store) Facilities(ctx context.Context) ([]model.FacilityPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, latitude, longitude FROM facilities`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query facilities")
	}
	defer rows.Close()

	var points []model.FacilityPoint
	for rows.Next() {
		var f model.FacilityPoint
		var category string
		if err := rows.Scan(&f.ID, &category, &f.Latitude, &f.Longitude); err != nil {
			return nil, eris.Wrap(err, "refstore: scan facility")
		}
		f.Category = model.Category(category)
		points = append(points, f)
	}
	return points, eris.Wrap(rows.Err(), "refstore: iterate facilities")
}

// Demographics loads real demographic indexes keyed by area id.
func (s *Store) Demographics(ctx context.Context) (map[string]model.Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT area_id, value, confidence FROM demographics`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query demographics")
	}
	defer rows.Close()

	byArea := make(map[string]model.Score)
	for rows.Next() {
		var id string
		var sc model.Score
		if err := rows.Scan(&id, &sc.Value, &sc.Confidence); err != nil {
			return nil, eris.Wrap(err, "refstore: scan demographic")
		}
		sc.HigherIsBetter = true
		byArea[id] = sc
	}
	return byArea, eris.Wrap(rows.Err(), "refstore: iterate demographics")
}

// Trends loads real crime trends keyed by area id.
func (s *Store) Trends(ctx context.Context) (map[string]model.Trend, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT area_id, trend FROM trends`)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: query trends")
	}
	defer rows.Close()

	byArea := make(map[string]model.Trend)
	for rows.Next() {
		var id, trend string
		if err := rows.Scan(&id, &trend); err != nil {
			return nil, eris.Wrap(err, "refstore: scan trend")
		}
		byArea[id] = model.Trend(trend)
	}
	return byArea, eris.Wrap(rows.Err(), "refstore: iterate trends")
}

// IngestRun records the outcome of one ingest pass.
type IngestRun struct {
	ID         string
	Source     string
	Rows       int
	Rejected   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordIngestRun persists an ingest outcome for auditing.
func (s *Store) RecordIngestRun(ctx context.Context, run IngestRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, rows, rejected, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Rows, run.Rejected,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "refstore: record ingest run")
	}
	return run.ID, nil
}

// ListIngestRuns returns recent ingest runs, newest first.
func (s *Store) ListIngestRuns(ctx context.Context, limit int) ([]IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, rows, rejected, started_at, finished_at
		 FROM ingest_runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: list ingest runs")
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Rows, &r.Rejected, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "refstore: scan ingest run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "refstore: iterate ingest runs")
}
