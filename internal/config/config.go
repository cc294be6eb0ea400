package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Safety      SafetyConfig      `yaml:"safety" mapstructure:"safety"`
	Convenience ConvenienceConfig `yaml:"convenience" mapstructure:"convenience"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the reference database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScoringConfig holds the cross-cutting scoring parameters.
type ScoringConfig struct {
	SeverityK      float64 `yaml:"severity_k" mapstructure:"severity_k"`
	ProfilePath    string  `yaml:"profile_path" mapstructure:"profile_path"`
	NeighborRadius float64 `yaml:"neighbor_radius_km" mapstructure:"neighbor_radius_km"`
	NeighborDecay  float64 `yaml:"neighbor_decay_km" mapstructure:"neighbor_decay_km"`
	SyntheticAllow bool    `yaml:"synthetic_allow" mapstructure:"synthetic_allow"`
}

// SafetyConfig holds the safety component weights. Weights must sum to 1.
type SafetyConfig struct {
	CrimeWeight        float64 `yaml:"crime_weight" mapstructure:"crime_weight"`
	DemographicWeight  float64 `yaml:"demographic_weight" mapstructure:"demographic_weight"`
	NeighborhoodWeight float64 `yaml:"neighborhood_weight" mapstructure:"neighborhood_weight"`
	TrendWeight        float64 `yaml:"trend_weight" mapstructure:"trend_weight"`
}

// ConvenienceConfig holds the per-category convenience weights.
type ConvenienceConfig struct {
	TransportWeight  float64 `yaml:"transport_weight" mapstructure:"transport_weight"`
	ShoppingWeight   float64 `yaml:"shopping_weight" mapstructure:"shopping_weight"`
	EducationWeight  float64 `yaml:"education_weight" mapstructure:"education_weight"`
	HealthWeight     float64 `yaml:"health_weight" mapstructure:"health_weight"`
	RecreationWeight float64 `yaml:"recreation_weight" mapstructure:"recreation_weight"`
}

// IngestConfig configures reference data ingestion.
type IngestConfig struct {
	CrimeWorkbookURL string  `yaml:"crime_workbook_url" mapstructure:"crime_workbook_url"`
	FacilitiesURL    string  `yaml:"facilities_url" mapstructure:"facilities_url"`
	BoundariesPath   string  `yaml:"boundaries_path" mapstructure:"boundaries_path"`
	TempDir          string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocodeConfig configures the address geocoder.
type GeocodeConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	CacheSize      int     `yaml:"cache_size" mapstructure:"cache_size"`
}

// BatchConfig configures batch scoring.
type BatchConfig struct {
	Workers            int `yaml:"workers" mapstructure:"workers"`
	PerAreaTimeoutSecs int `yaml:"per_area_timeout_secs" mapstructure:"per_area_timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures data quality checks and alerting.
type MonitoringConfig struct {
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs       int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	CoverageThreshold       float64 `yaml:"coverage_threshold" mapstructure:"coverage_threshold"`
	SyntheticShareThreshold float64 `yaml:"synthetic_share_threshold" mapstructure:"synthetic_share_threshold"`
	RejectRateThreshold     float64 `yaml:"reject_rate_threshold" mapstructure:"reject_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SUBURBSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "suburbscore.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("scoring.severity_k", 10000.0)
	v.SetDefault("scoring.neighbor_radius_km", 20.0)
	v.SetDefault("scoring.neighbor_decay_km", 8.0)
	v.SetDefault("scoring.synthetic_allow", true)
	v.SetDefault("safety.crime_weight", 0.50)
	v.SetDefault("safety.demographic_weight", 0.25)
	v.SetDefault("safety.neighborhood_weight", 0.15)
	v.SetDefault("safety.trend_weight", 0.10)
	v.SetDefault("convenience.transport_weight", 0.40)
	v.SetDefault("convenience.shopping_weight", 0.20)
	v.SetDefault("convenience.education_weight", 0.15)
	v.SetDefault("convenience.health_weight", 0.15)
	v.SetDefault("convenience.recreation_weight", 0.10)
	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.per_area_timeout_secs", 2)
	v.SetDefault("ingest.crime_workbook_url", "https://www.police.wa.gov.au/-/media/Crime-Statistics/Crime-Statistics.xlsx")
	v.SetDefault("ingest.temp_dir", "/tmp/suburbscore")
	v.SetDefault("ingest.requests_per_sec", 1.0)
	v.SetDefault("ingest.timeout_secs", 120)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "suburbscore/1.0")
	v.SetDefault("geocode.requests_per_sec", 1.0)
	v.SetDefault("geocode.cache_size", 4096)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.coverage_threshold", 0.80)
	v.SetDefault("monitoring.synthetic_share_threshold", 0.50)
	v.SetDefault("monitoring.reject_rate_threshold", 0.10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Batch.Workers >= 1 && c.Batch.Workers <= 64, "batch.workers must be between 1 and 64")
	check(c.Scoring.SeverityK > 0, "scoring.severity_k must be > 0")
	check(c.Scoring.NeighborRadius > 0, "scoring.neighbor_radius_km must be > 0")
	check(c.Scoring.NeighborDecay > 0, "scoring.neighbor_decay_km must be > 0")

	safetySum := c.Safety.CrimeWeight + c.Safety.DemographicWeight +
		c.Safety.NeighborhoodWeight + c.Safety.TrendWeight
	check(math.Abs(safetySum-1.0) <= 1e-9, "safety weights must sum to 1.0")

	convSum := c.Convenience.TransportWeight + c.Convenience.ShoppingWeight +
		c.Convenience.EducationWeight + c.Convenience.HealthWeight + c.Convenience.RecreationWeight
	check(math.Abs(convSum-1.0) <= 1e-9, "convenience weights must sum to 1.0")

	switch mode {
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Store.Path != "", "store.path is required")
	case "load":
		check(c.Store.Path != "", "store.path is required")
		check(c.Ingest.CrimeWorkbookURL != "", "ingest.crime_workbook_url is required")
	case "score":
		check(c.Store.Path != "", "store.path is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
