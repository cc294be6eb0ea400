package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/homescout-au/suburbscore/pkg/geocode"
)

var (
	scoreArea    string
	scoreLat     float64
	scoreLng     float64
	scoreAddress string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a suburb or location",
	Long: `Scores against the loaded reference data.

With --area, prints the suburb's safety rating, convenience score, and
investment index. With --lat/--lng or --address, prints the convenience
score for that point.

Examples:
  # Full scoring for a suburb
  score --area subiaco

  # Convenience at a point
  score --lat -31.9523 --lng 115.8613

  # Convenience at a geocoded address
  score --address "12 Rokeby Rd, Subiaco WA"`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreArea, "area", "", "area id to score")
	scoreCmd.Flags().Float64Var(&scoreLat, "lat", 0, "latitude")
	scoreCmd.Flags().Float64Var(&scoreLng, "lng", 0, "longitude")
	scoreCmd.Flags().StringVar(&scoreAddress, "address", "", "address to geocode and score")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("score"); err != nil {
		return err
	}
	ctx := cmd.Context()

	env, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if scoreArea != "" {
		safetyRating, err := env.engine.ScoreSafety(ctx, scoreArea)
		if err != nil {
			return err
		}
		investment, err := env.engine.ScoreCombined(ctx, scoreArea)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]any{
			"safety":     safetyRating,
			"investment": investment,
		})
	}

	var lat, lng float64
	switch {
	case scoreAddress != "":
		client := geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithUserAgent(cfg.Geocode.UserAgent),
			geocode.WithRateLimit(cfg.Geocode.RequestsPerSec),
			geocode.WithCacheSize(cfg.Geocode.CacheSize),
		)
		result, err := client.Geocode(ctx, scoreAddress)
		if err != nil {
			return err
		}
		if !result.Matched {
			return eris.Errorf("address not found: %q", scoreAddress)
		}
		lat, lng = result.Latitude, result.Longitude
	case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng"):
		lat, lng = scoreLat, scoreLng
	default:
		return eris.New("one of --area, --lat/--lng, or --address is required")
	}

	conv, err := env.engine.ScoreConvenience(ctx, lat, lng)
	if err != nil {
		return err
	}
	return enc.Encode(conv)
}
