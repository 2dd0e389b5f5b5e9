package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Scraping strategies
const (
	StrategySequential = "sequential"
	StrategyConcurrent = "concurrent"
)

// Config represents the application configuration
type Config struct {
	// Source configuration
	BaseURL   string
	PageParam string
	PageSize  int
	MaxPages  int

	// Aggregation configuration
	Strategy       string
	PageDelay      time.Duration
	Concurrency    int
	EmptyPageLimit int
	Retries        int

	// Timeouts
	FetchTimeout   time.Duration
	RequestTimeout time.Duration

	// Listing markup selectors
	ContainerSelectors  []string
	CellSelector        string
	DateSelector        string
	DescriptionSelector string

	// HTTP server
	HTTPAddr string

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Worker configuration
	RefreshInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		BaseURL:        getEnv("SCRAPE_BASE_URL", "https://www.tourmag.com/welcometothetravel/"),
		PageParam:      getEnv("SCRAPE_PAGE_PARAM", "start"),
		PageSize:       getEnvInt("SCRAPE_PAGE_SIZE", 10),
		MaxPages:       getEnvInt("SCRAPE_MAX_PAGES", 15),
		Strategy:       strings.ToLower(getEnv("SCRAPE_STRATEGY", StrategySequential)),
		PageDelay:      time.Duration(getEnvInt("SCRAPE_PAGE_DELAY_MS", 500)) * time.Millisecond,
		Concurrency:    getEnvInt("SCRAPE_CONCURRENCY", 0),
		EmptyPageLimit: getEnvInt("SCRAPE_EMPTY_PAGE_LIMIT", 1),
		Retries:        getEnvInt("SCRAPE_RETRIES", 0),
		FetchTimeout:   time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		ContainerSelectors: getEnvList("LISTING_CONTAINER_SELECTORS",
			[]string{"#annonces", "#petites_annonces", "div.liste_annonces"}),
		CellSelector:         getEnv("LISTING_CELL_SELECTOR", ".cel_annonce"),
		DateSelector:         getEnv("LISTING_DATE_SELECTOR", "[class*='date'], time, [datetime]"),
		DescriptionSelector:  getEnv("LISTING_DESCRIPTION_SELECTOR", ""),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "joboffers"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 100),
		RefreshInterval:      time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 0)) * time.Second,
		Environment:          getEnv("JOBOFFERS_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid SCRAPE_BASE_URL %q", c.BaseURL)
	}
	if c.PageParam == "" {
		return fmt.Errorf("SCRAPE_PAGE_PARAM must not be empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("SCRAPE_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("SCRAPE_MAX_PAGES must be positive, got %d", c.MaxPages)
	}
	if c.Strategy != StrategySequential && c.Strategy != StrategyConcurrent {
		return fmt.Errorf("unknown SCRAPE_STRATEGY %q", c.Strategy)
	}
	if c.EmptyPageLimit <= 0 {
		return fmt.Errorf("SCRAPE_EMPTY_PAGE_LIMIT must be positive, got %d", c.EmptyPageLimit)
	}
	if c.Retries < 0 || c.Concurrency < 0 || c.PageDelay < 0 {
		return fmt.Errorf("retries, concurrency and page delay must not be negative")
	}
	if len(c.ContainerSelectors) == 0 || c.CellSelector == "" {
		return fmt.Errorf("listing container and cell selectors are required")
	}
	if c.RefreshInterval > 0 && c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive when refresh is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated variable; empty entries are dropped
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
