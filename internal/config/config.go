package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source names, in the order batches run. The factsheet batch runs last so
// its per-worker browser sessions never race the HTTP batches.
const (
	SourceInvesting = "investing"
	SourceYahoo     = "yahoo"
	SourceJitta     = "jitta"
)

// Sources lists every known source in batch order.
var Sources = []string{SourceInvesting, SourceYahoo, SourceJitta}

// Config holds all configuration for the fetch run.
type Config struct {
	// Registry and output locations
	RegistryPath  string `mapstructure:"registry_path"`
	RegistrySheet string `mapstructure:"registry_sheet"`
	DataDir       string `mapstructure:"data_dir"`

	// Optional market-index export to reformat before fetching
	IndexFile string `mapstructure:"index_file"`

	// Worker pool size (capped at hardware parallelism at run time)
	Workers int `mapstructure:"workers"`

	// Date range start, dd/mm/yyyy; the range always ends yesterday
	StartDate string `mapstructure:"start_date"`

	// Response cache for the quote provider
	CacheDir     string `mapstructure:"cache_dir"`
	CacheTTLDays int    `mapstructure:"cache_ttl_days"`

	// Portal source
	InvestingBaseURL string `mapstructure:"investing_base_url"`
	InvestingCountry string `mapstructure:"investing_country"`

	// Quote-provider source
	YahooBaseURL      string `mapstructure:"yahoo_base_url"`
	YahooSymbolSuffix string `mapstructure:"yahoo_symbol_suffix"`

	// Factsheet source; credentials are injected, never hardcoded
	JittaBaseURL  string `mapstructure:"jitta_base_url"`
	JittaLoginURL string `mapstructure:"jitta_login_url"`
	JittaMarket   string `mapstructure:"jitta_market"`
	JittaEmail    string `mapstructure:"jitta_email"`
	JittaPassword string `mapstructure:"jitta_password"`
	JittaHeadless bool   `mapstructure:"jitta_headless"`
}

// startDateLayout is the dd/mm/yyyy convention used across the registry's
// source ecosystem.
const startDateLayout = "02/01/2006"

// Load reads configuration from environment variables and optional config
// file. Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - JITTA_EMAIL, JITTA_PASSWORD (required when the jitta source runs)
//   - REGISTRY_PATH, REGISTRY_SHEET, DATA_DIR, WORKERS, START_DATE (optional)
//   - CACHE_DIR, CACHE_TTL_DAYS (optional)
//   - INVESTING_BASE_URL, INVESTING_COUNTRY (optional, default production)
//   - YAHOO_BASE_URL, YAHOO_SYMBOL_SUFFIX (optional, default production)
//   - JITTA_BASE_URL, JITTA_LOGIN_URL, JITTA_MARKET, JITTA_HEADLESS (optional)
func Load() (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry_path", "stock_list.xlsx")
	v.SetDefault("registry_sheet", "StockList")
	v.SetDefault("data_dir", "data")
	v.SetDefault("index_file", "")
	v.SetDefault("workers", 4)
	v.SetDefault("start_date", "30/12/2009")
	v.SetDefault("cache_dir", "cache")
	v.SetDefault("cache_ttl_days", 3)
	v.SetDefault("investing_base_url", "https://api.investing.com/api/financialdata/historical")
	v.SetDefault("investing_country", "thailand")
	v.SetDefault("yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo_symbol_suffix", ".BK")
	v.SetDefault("jitta_base_url", "https://www.jitta.com")
	v.SetDefault("jitta_login_url", "https://accounts.jitta.com/login")
	v.SetDefault("jitta_market", "bkk")
	v.SetDefault("jitta_headless", true)

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.midasfetch")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	for _, key := range []string{
		"registry_path", "registry_sheet", "data_dir", "index_file",
		"workers", "start_date", "cache_dir", "cache_ttl_days",
		"investing_base_url", "investing_country",
		"yahoo_base_url", "yahoo_symbol_suffix",
		"jitta_base_url", "jitta_login_url", "jitta_market",
		"jitta_email", "jitta_password", "jitta_headless",
	} {
		v.BindEnv(key, strings.ToUpper(key))
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := config.Start(); err != nil {
		return nil, err
	}
	if config.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", config.Workers)
	}

	return config, nil
}

// Validate checks the requirements that depend on which sources run.
// Factsheet credentials are only required when the jitta batch is selected.
func (c *Config) Validate(sources []string) error {
	var missing []string
	for _, source := range sources {
		if source != SourceJitta {
			continue
		}
		if c.JittaEmail == "" {
			missing = append(missing, "JITTA_EMAIL")
		}
		if c.JittaPassword == "" {
			missing = append(missing, "JITTA_PASSWORD")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Start parses the configured date-range start.
func (c *Config) Start() (time.Time, error) {
	start, err := time.Parse(startDateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date %q (want dd/mm/yyyy): %w", c.StartDate, err)
	}
	return start, nil
}

// CacheTTL converts the configured freshness window to a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}

// OutputDir returns the per-source output directory.
func (c *Config) OutputDir(source string) string {
	return fmt.Sprintf("%s/%s", c.DataDir, source)
}
