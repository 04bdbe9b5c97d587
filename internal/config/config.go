package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultImageBaseURL = "https://kwsong.github.io/biodigitalviz/images"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type GridConfig struct {
	Rows      int
	Cols      int
	ThumbSize int
	Spacing   int
	DPI       int
	PadInches float64
	BaseURL   string
}

type FetchConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	RateLimit   float64
	Burst       int
	UserAgent   string
}

type AirtableConfig struct {
	APIToken    string
	BaseID      string
	TableID     string
	Timeout     time.Duration
	Limit       float64
	Burst       int
	MaxRetries  int
	BaseBackoff time.Duration
}

type TelemetryConfig struct {
	TraceExporter   string
	MetricsTextfile string
}

type Config struct {
	Grid      GridConfig
	Fetch     FetchConfig
	Airtable  AirtableConfig
	Telemetry TelemetryConfig
}

func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := Config{}

	rows, err := getEnvIntDefault("GRID_ROWS", "6")
	if err != nil {
		return nil, fmt.Errorf("invalid grid rows: %w", err)
	}
	cfg.Grid.Rows = rows

	cols, err := getEnvIntDefault("GRID_COLS", "12")
	if err != nil {
		return nil, fmt.Errorf("invalid grid cols: %w", err)
	}
	cfg.Grid.Cols = cols

	thumbSize, err := getEnvIntDefault("THUMB_SIZE", "150")
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail size: %w", err)
	}
	cfg.Grid.ThumbSize = thumbSize

	spacing, err := getEnvIntDefault("THUMB_SPACING", "5")
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail spacing: %w", err)
	}
	cfg.Grid.Spacing = spacing

	dpi, err := getEnvIntDefault("FIG_DPI", "150")
	if err != nil {
		return nil, fmt.Errorf("invalid dpi: %w", err)
	}
	cfg.Grid.DPI = dpi

	padInches, err := getEnvFloatDefault("FIG_PAD_INCHES", "0.05")
	if err != nil {
		return nil, fmt.Errorf("invalid pad inches: %w", err)
	}
	cfg.Grid.PadInches = padInches

	baseURL, err := getEnvStringDefault("IMAGE_BASE_URL", DefaultImageBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image base url: %w", err)
	}
	cfg.Grid.BaseURL = baseURL

	timeout, err := getEnvTimeDefault("HTTP_CLIENT_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	cfg.Fetch.Timeout = timeout

	maxRetries, err := getEnvIntDefault("FETCH_MAX_RETRIES", "3")
	if err != nil {
		return nil, fmt.Errorf("invalid max retries: %w", err)
	}
	cfg.Fetch.MaxRetries = maxRetries

	baseBackoff, err := getEnvTimeDefault("FETCH_BASE_BACKOFF", "0s")
	if err != nil {
		return nil, fmt.Errorf("invalid base backoff: %w", err)
	}
	cfg.Fetch.BaseBackoff = baseBackoff

	rateLimit, err := getEnvFloatDefault("FETCH_RATE_LIMIT", "0") // 0 means unlimited
	if err != nil {
		return nil, fmt.Errorf("invalid fetch rate limit: %w", err)
	}
	cfg.Fetch.RateLimit = rateLimit

	burst, err := getEnvIntDefault("FETCH_BURST", "1")
	if err != nil {
		return nil, fmt.Errorf("invalid fetch burst: %w", err)
	}
	cfg.Fetch.Burst = burst

	userAgent, err := getEnvStringDefault("FETCH_USER_AGENT", DefaultUserAgent)
	if err != nil {
		return nil, fmt.Errorf("invalid user agent: %w", err)
	}
	cfg.Fetch.UserAgent = userAgent

	// Airtable settings are only checked when the airtable source is used.
	cfg.Airtable.APIToken = os.Getenv("AIRTABLE_API_TOKEN")
	cfg.Airtable.BaseID = os.Getenv("AIRTABLE_BASE_ID")
	cfg.Airtable.TableID = os.Getenv("AIRTABLE_TABLE_ID")

	airtableTimeout, err := getEnvTimeDefault("AIRTABLE_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid airtable timeout: %w", err)
	}
	cfg.Airtable.Timeout = airtableTimeout

	limit, err := getEnvFloatDefault("AIRTABLE_RATE_LIMIT", "5") // Airtable allows 5 reqs/s per base
	if err != nil {
		return nil, fmt.Errorf("invalid airtable rate limit: %w", err)
	}
	cfg.Airtable.Limit = limit

	airtableBurst, err := getEnvIntDefault("AIRTABLE_BURST", "1")
	if err != nil {
		return nil, fmt.Errorf("invalid airtable burst: %w", err)
	}
	cfg.Airtable.Burst = airtableBurst

	airtableRetries, err := getEnvIntDefault("AIRTABLE_MAX_RETRIES", "3")
	if err != nil {
		return nil, fmt.Errorf("invalid airtable max retries: %w", err)
	}
	cfg.Airtable.MaxRetries = airtableRetries

	airtableBackoff, err := getEnvTimeDefault("AIRTABLE_BASE_BACKOFF", "1s")
	if err != nil {
		return nil, fmt.Errorf("invalid airtable base backoff: %w", err)
	}
	cfg.Airtable.BaseBackoff = airtableBackoff

	exporter, err := getEnvStringDefault("TRACE_EXPORTER", "none")
	if err != nil {
		return nil, fmt.Errorf("invalid trace exporter: %w", err)
	}
	switch exporter {
	case "none", "stdout", "otlp":
	default:
		return nil, fmt.Errorf("invalid trace exporter: %q (want none, stdout or otlp)", exporter)
	}
	cfg.Telemetry.TraceExporter = exporter

	cfg.Telemetry.MetricsTextfile = os.Getenv("METRICS_TEXTFILE")

	if err := cfg.Grid.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (g GridConfig) validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("grid must have at least one row and column, got %dx%d", g.Rows, g.Cols)
	}
	if g.ThumbSize <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %d", g.ThumbSize)
	}
	if g.Spacing < 0 || g.PadInches < 0 {
		return fmt.Errorf("spacing and padding must not be negative")
	}
	if g.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", g.DPI)
	}
	return nil
}

// Validate reports the first missing Airtable setting.
func (a AirtableConfig) Validate() error {
	required := []struct{ key, value string }{
		{"AIRTABLE_API_TOKEN", a.APIToken},
		{"AIRTABLE_BASE_ID", a.BaseID},
		{"AIRTABLE_TABLE_ID", a.TableID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing env: %s not defined", r.key)
		}
	}
	if a.Limit <= 0 {
		return fmt.Errorf("airtable rate limit must be positive, got %v", a.Limit)
	}
	return nil
}

// loadDotEnv reads a .env file and sets any variable not already present in
// the environment. It silently does nothing if the file doesn't exist.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnvStringDefault(key, defaultValue string) (string, error) {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}
	return result, nil
}

func getEnvTimeDefault(key, defaultValue string) (time.Duration, error) {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}

	duration, err := time.ParseDuration(result)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration: %w", err)
	}
	return duration, nil
}

func getEnvIntDefault(key, defaultValue string) (int, error) {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}
	value, err := strconv.Atoi(result)
	if err != nil {
		return 0, fmt.Errorf("error parsing env: %w", err)
	}
	return value, nil
}

func getEnvFloatDefault(key, defaultValue string) (float64, error) {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}
	value, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing env: %w", err)
	}
	return value, nil
}
