// Package config loads the YAML configuration for the canslim platform and
// applies environment variable overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the canslim platform.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Screen   ScreenConfig   `yaml:"screen"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig controls daily-bar gathering.
type GatherConfig struct {
	StartDate       string   `yaml:"start_date"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	Symbols         []string `yaml:"symbols"`
}

// ScreenConfig holds the thresholds for the CANSLIM indicator screens.
// Zero values are replaced with defaults by ApplyDefaults.
type ScreenConfig struct {
	QuarterlyEPSGrowthMin float64 `yaml:"quarterly_eps_growth_min"`
	AnnualEPSGrowthMin    float64 `yaml:"annual_eps_growth_min"`
	NewHighLookbackDays   int     `yaml:"new_high_lookback_days"`
	VolumeSurgeFactor     float64 `yaml:"volume_surge_factor"`
	LeadershipMin         float64 `yaml:"leadership_min"`
	LeadershipSmoothDays  int     `yaml:"leadership_smooth_days"`
	AccumulationLookback  int     `yaml:"accumulation_lookback_days"`
	AccumulationRatioMin  float64 `yaml:"accumulation_ratio_min"`
	StrictMarketTrend     bool    `yaml:"strict_market_trend"`
}

// BacktestConfig defines the simulation parameters.
type BacktestConfig struct {
	InitialValue float64 `yaml:"initial_value"`
	Frequency    string  `yaml:"frequency"`
	StartDate    string  `yaml:"start_date"`
	EndDate      string  `yaml:"end_date"`
	MarketProxy  string  `yaml:"market_proxy"`
	CashProxy    string  `yaml:"cash_proxy"`
	Strategy     string  `yaml:"strategy"`
	MaxPositions int     `yaml:"max_positions"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	return cfg, nil
}

// ApplyDefaults fills unset fields with the platform defaults.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Backtest.InitialValue == 0 {
		c.Backtest.InitialValue = 100_000
	}
	if c.Backtest.Frequency == "" {
		c.Backtest.Frequency = "quarterly"
	}
	if c.Backtest.MarketProxy == "" {
		c.Backtest.MarketProxy = "SPY"
	}
	if c.Backtest.CashProxy == "" {
		c.Backtest.CashProxy = "SHY"
	}
	if c.Backtest.Strategy == "" {
		c.Backtest.Strategy = "canslim"
	}
	if c.Backtest.MaxPositions == 0 {
		c.Backtest.MaxPositions = 6
	}

	s := &c.Screen
	if s.QuarterlyEPSGrowthMin == 0 {
		s.QuarterlyEPSGrowthMin = 0.25
	}
	if s.AnnualEPSGrowthMin == 0 {
		s.AnnualEPSGrowthMin = 0.20
	}
	if s.NewHighLookbackDays == 0 {
		s.NewHighLookbackDays = 252
	}
	if s.VolumeSurgeFactor == 0 {
		s.VolumeSurgeFactor = 1.25
	}
	if s.LeadershipSmoothDays == 0 {
		s.LeadershipSmoothDays = 20
	}
	if s.AccumulationLookback == 0 {
		s.AccumulationLookback = 50
	}
	if s.AccumulationRatioMin == 0 {
		s.AccumulationRatioMin = 1.25
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca SDK env vars take highest priority.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
