// Package config provides configuration loading and management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTickers is the options allow-list used when none is configured
var DefaultTickers = []string{
	"SPY", "QQQ", "IWM", "DIA", "VIX", "VXN",
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA",
	"BTC", "TLT", "IEF",
}

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string `yaml:"port"`

	// Base URLs for the upstream feeds
	Data912URL string `yaml:"data912_url"`
	DeribitURL string `yaml:"deribit_url"`
	CBOEURL    string `yaml:"cboe_url"`
	DoctaURL   string `yaml:"docta_url"`

	// Docta client-credentials pair and the cash-flow endpoint path
	DoctaClientID     string `yaml:"-"`
	DoctaClientSecret string `yaml:"-"`
	DoctaCashFlowPath string `yaml:"docta_cashflow_path"`

	// CashFlowFile is a local CSV used instead of the Docta API when set
	CashFlowFile string `yaml:"cashflow_file"`

	// OpenTelemetry endpoint for observability
	OtelEndpoint string `yaml:"otel_endpoint"`

	// Options pipeline
	Tickers       []string `yaml:"tickers"`
	HorizonMonths int      `yaml:"horizon_months"`

	// Timeouts, caching and rate limits
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	UpstreamRPS     float64       `yaml:"upstream_rps"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`

	// Live-price circuit breaker settings
	MinInstruments     int           `yaml:"min_instruments"`
	MaxMedianAbsChange float64       `yaml:"max_median_abs_change"`
	CircuitResetDelay  time.Duration `yaml:"circuit_reset_delay"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:               "8080",
		Data912URL:         "https://data912.com",
		DeribitURL:         "https://www.deribit.com",
		CBOEURL:            "https://cdn.cboe.com",
		DoctaURL:           "https://api.doctacapital.com.ar/api/v1",
		DoctaCashFlowPath:  "/bonds/cashflows",
		Tickers:            append([]string(nil), DefaultTickers...),
		HorizonMonths:      6,
		RequestTimeout:     20 * time.Second,
		CacheTTL:           5 * time.Minute,
		UpstreamRPS:        5,
		RateLimitPerSec:    10,
		RateLimitBurst:     20,
		MinInstruments:     5,
		MaxMedianAbsChange: 25,
		CircuitResetDelay:  5 * time.Minute,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() Config {
	LoadDotEnv("")

	cfg := Default()
	if path, ok := GetEnv("CONFIG_FILE"); ok && path != "" {
		if fileCfg, err := LoadFile(path); err == nil {
			cfg = fileCfg
		} else {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}

	cfg.Port = GetEnvOrDefault("PORT", cfg.Port)
	cfg.Data912URL = GetEnvOrDefault("DATA912_URL", cfg.Data912URL)
	cfg.DeribitURL = GetEnvOrDefault("DERIBIT_URL", cfg.DeribitURL)
	cfg.CBOEURL = GetEnvOrDefault("CBOE_URL", cfg.CBOEURL)
	cfg.DoctaURL = GetEnvOrDefault("DOCTA_URL", cfg.DoctaURL)
	cfg.DoctaClientID = GetEnvOrDefault("DOCTA_CLIENT_ID", cfg.DoctaClientID)
	cfg.DoctaClientSecret = GetEnvOrDefault("DOCTA_CLIENT_SECRET", cfg.DoctaClientSecret)
	cfg.DoctaCashFlowPath = GetEnvOrDefault("DOCTA_CASHFLOW_PATH", cfg.DoctaCashFlowPath)
	cfg.CashFlowFile = GetEnvOrDefault("CASHFLOW_FILE", cfg.CashFlowFile)
	cfg.OtelEndpoint = GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OtelEndpoint)
	cfg.HorizonMonths = GetEnvAsInt("HORIZON_MONTHS", cfg.HorizonMonths)
	cfg.RequestTimeout = GetEnvAsDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CacheTTL = GetEnvAsDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.UpstreamRPS = GetEnvAsFloat("UPSTREAM_RPS", cfg.UpstreamRPS)
	cfg.RateLimitPerSec = GetEnvAsFloat("RATE_LIMIT_PER_SEC", cfg.RateLimitPerSec)
	cfg.RateLimitBurst = GetEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.MinInstruments = GetEnvAsInt("MIN_INSTRUMENTS", cfg.MinInstruments)
	cfg.MaxMedianAbsChange = GetEnvAsFloat("MAX_MEDIAN_ABS_CHANGE", cfg.MaxMedianAbsChange)
	cfg.CircuitResetDelay = GetEnvAsDuration("CIRCUIT_RESET_DELAY", cfg.CircuitResetDelay)
	if raw, ok := GetEnv("TICKERS"); ok && strings.TrimSpace(raw) != "" {
		cfg.Tickers = strings.Split(raw, ",")
	}

	cfg.Tickers = NormalizeTickers(cfg.Tickers)
	return cfg
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error; existing variables are never overridden.
func LoadDotEnv(path string) error {
	var err error
	if path == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFile reads a YAML configuration file on top of Default
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Tickers = NormalizeTickers(cfg.Tickers)
	return cfg, nil
}

// NormalizeTickers upper-cases, trims and de-duplicates a ticker list,
// keeping first-seen order
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Allowed reports whether ticker is on the options allow-list
func (c Config) Allowed(ticker string) bool {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	for _, t := range c.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
