package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/ingest"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/refstore"
	"github.com/homescout-au/suburbscore/pkg/geocode"
)

var (
	loadAreasPath        string
	loadCrimePath        string
	loadFacilitiesPath   string
	loadFacilitiesChar   string
	loadBoundariesPath   string
	loadBoundariesField  string
	loadDemographicsPath string
	loadSkipDownload     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Ingest reference data into the store",
	Long: `Downloads and parses reference data sources, replacing the stored
tables wholesale: area definitions, the crime statistics workbook,
facility locations, district boundaries, and demographic indexes.
Crime trends are derived from the loaded offense records.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadAreasPath, "areas", "", "areas CSV path")
	loadCmd.Flags().StringVar(&loadCrimePath, "crime", "", "crime workbook path (skips download)")
	loadCmd.Flags().StringVar(&loadFacilitiesPath, "facilities", "", "facilities CSV path")
	loadCmd.Flags().StringVar(&loadFacilitiesChar, "facilities-charset", "", "facilities CSV charset (default UTF-8)")
	loadCmd.Flags().StringVar(&loadBoundariesPath, "boundaries", "", "district boundary shapefile path")
	loadCmd.Flags().StringVar(&loadBoundariesField, "boundaries-field", "DISTRICT", "shapefile attribute holding the district name")
	loadCmd.Flags().StringVar(&loadDemographicsPath, "demographics", "", "demographics CSV path")
	loadCmd.Flags().BoolVar(&loadSkipDownload, "skip-download", false, "never download, only use local paths")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("load"); err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if loadAreasPath != "" {
		if err := loadAreas(ctx, store); err != nil {
			return err
		}
	}
	if err := loadCrime(ctx, store); err != nil {
		return err
	}
	if loadFacilitiesPath != "" {
		if err := loadFacilities(ctx, store); err != nil {
			return err
		}
	}
	if loadBoundariesPath != "" {
		if err := loadBoundaries(ctx, store); err != nil {
			return err
		}
	}
	if loadDemographicsPath != "" {
		if err := loadDemographics(ctx, store); err != nil {
			return err
		}
	}

	zap.L().Info("load complete")
	return nil
}

func loadAreas(ctx context.Context, store *refstore.Store) error {
	f, err := os.Open(loadAreasPath)
	if err != nil {
		return eris.Wrap(err, "open areas csv")
	}
	defer f.Close() //nolint:errcheck

	started := time.Now()
	result, err := ingest.ParseAreasCSV(f)
	if err != nil {
		return err
	}
	if err := geocodeMissing(ctx, result.Areas); err != nil {
		return err
	}
	if err := store.ReplaceAreas(ctx, result.Areas); err != nil {
		return err
	}
	return recordRun(ctx, store, "areas", len(result.Areas), result.Rejected, started)
}

// geocodeMissing fills coordinates for areas whose source rows had none.
func geocodeMissing(ctx context.Context, areas []model.Area) error {
	var missing []int
	for i, a := range areas {
		if a.Latitude == 0 && a.Longitude == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	client := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRateLimit(cfg.Geocode.RequestsPerSec),
		geocode.WithCacheSize(cfg.Geocode.CacheSize),
	)
	for _, i := range missing {
		result, err := client.Geocode(ctx, areas[i].Name+", Western Australia")
		if err != nil {
			return eris.Wrapf(err, "geocode area %s", areas[i].ID)
		}
		if !result.Matched {
			zap.L().Warn("area not geocoded", zap.String("area", areas[i].ID))
			continue
		}
		areas[i].Latitude = result.Latitude
		areas[i].Longitude = result.Longitude
	}
	zap.L().Info("geocoded areas", zap.Int("count", len(missing)))
	return nil
}

func loadCrime(ctx context.Context, store *refstore.Store) error {
	path := loadCrimePath
	started := time.Now()

	if path == "" {
		if loadSkipDownload {
			zap.L().Info("no crime workbook path given, skipping")
			return nil
		}
		if err := os.MkdirAll(cfg.Ingest.TempDir, 0o755); err != nil {
			return eris.Wrap(err, "create temp dir")
		}
		path = filepath.Join(cfg.Ingest.TempDir, "crime.xlsx")

		downloader := ingest.NewDownloader(ingest.DownloadOptions{
			Timeout:        time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
			RequestsPerSec: cfg.Ingest.RequestsPerSec,
		})
		n, err := downloader.DownloadToFile(ctx, cfg.Ingest.CrimeWorkbookURL, path)
		if err != nil {
			return err
		}
		zap.L().Info("downloaded crime workbook",
			zap.String("url", cfg.Ingest.CrimeWorkbookURL),
			zap.Int64("bytes", n),
		)
	}

	result, err := ingest.ParseCrimeWorkbook(path)
	if err != nil {
		return err
	}
	if err := store.ReplaceOffenses(ctx, result.Records); err != nil {
		return err
	}

	// Trends are derived from the loaded offenses, keyed by district. An
	// area inherits the trend of its explicitly mapped district.
	trendsByDistrict := ingest.DeriveTrends(result.Records)
	areas, err := store.Areas(ctx)
	if err != nil {
		return err
	}
	trendsByArea := make(map[string]model.Trend)
	for _, a := range areas {
		if a.JurisdictionID == "" {
			continue
		}
		if trend, ok := trendsByDistrict[a.JurisdictionID]; ok {
			trendsByArea[a.ID] = trend
		}
	}
	if err := store.ReplaceTrends(ctx, trendsByArea); err != nil {
		return err
	}

	return recordRun(ctx, store, "crime-workbook", len(result.Records), result.Rejected, started)
}

func loadFacilities(ctx context.Context, store *refstore.Store) error {
	f, err := os.Open(loadFacilitiesPath)
	if err != nil {
		return eris.Wrap(err, "open facilities csv")
	}
	defer f.Close() //nolint:errcheck

	started := time.Now()
	result, err := ingest.ParseFacilitiesCSV(f, ingest.FacilitiesOptions{Charset: loadFacilitiesChar})
	if err != nil {
		return err
	}
	if err := store.ReplaceFacilities(ctx, result.Points); err != nil {
		return err
	}
	return recordRun(ctx, store, "facilities", len(result.Points), result.Rejected, started)
}

func loadBoundaries(ctx context.Context, store *refstore.Store) error {
	started := time.Now()
	districts, err := ingest.ParseBoundaries(loadBoundariesPath, loadBoundariesField)
	if err != nil {
		return err
	}
	if err := store.ReplaceJurisdictions(ctx, districts); err != nil {
		return err
	}
	return recordRun(ctx, store, "boundaries", len(districts), 0, started)
}

func loadDemographics(ctx context.Context, store *refstore.Store) error {
	f, err := os.Open(loadDemographicsPath)
	if err != nil {
		return eris.Wrap(err, "open demographics csv")
	}
	defer f.Close() //nolint:errcheck

	started := time.Now()
	result, err := ingest.ParseDemographicsCSV(f)
	if err != nil {
		return err
	}
	if err := store.ReplaceDemographics(ctx, result.ByArea); err != nil {
		return err
	}
	return recordRun(ctx, store, "demographics", len(result.ByArea), result.Rejected, started)
}

func recordRun(ctx context.Context, store *refstore.Store, source string, rows, rejected int, started time.Time) error {
	_, err := store.RecordIngestRun(ctx, refstore.IngestRun{
		Source:     source,
		Rows:       rows,
		Rejected:   rejected,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	zap.L().Info("ingested source",
		zap.String("source", source),
		zap.Int("rows", rows),
		zap.Int("rejected", rejected),
	)
	return nil
}
