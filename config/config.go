package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Fetch      FetchConfig
	Extraction ExtractionConfig
	OCR        OCRConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes lists resource types to block on fetch sessions.
	// Screenshot sessions never block resources.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// FetchConfig controls per-page fetching.
type FetchConfig struct {
	// HTTPTimeout is the deadline for the static HTTP engine.
	HTTPTimeout time.Duration // default: 10s

	// PageTimeout is the deadline for a single page fetch, any engine.
	PageTimeout time.Duration // default: 30s
}

// ExtractionConfig controls the extraction run.
type ExtractionConfig struct {
	// MaxPagesCap is the upper bound a client may request for max_pages.
	MaxPagesCap int // default: 50

	// LatencyBudget is the elapsed run time after which a run escalates
	// to OCR instead of continuing with structural extraction.
	LatencyBudget time.Duration // default: 45s

	// InterPageDelay is the pause between page transitions.
	InterPageDelay time.Duration // default: 2s

	// ScrollMaxWait is the max time to wait for new content after a scroll.
	ScrollMaxWait time.Duration // default: 10s

	// LoopGuard toggles duplicate-page detection during pagination.
	LoopGuard bool // default: true

	// LoopGuardDistance is the max fingerprint distance at which two
	// consecutive pages are treated as duplicates.
	LoopGuardDistance int // default: 0

	// MaxRecordsPerPage caps how many records are kept per page.
	MaxRecordsPerPage int // default: 30

	// StrategyMemoryTTL is how long a winning fetch strategy stays
	// pinned for a domain.
	StrategyMemoryTTL time.Duration // default: 24h
}

// OCRConfig controls the vision-model OCR fallback.
type OCRConfig struct {
	// BaseURL is the OpenAI-compatible API endpoint.
	BaseURL string // default: "https://api.openai.com/v1"

	// APIKey authenticates against the vision API. OCR is disabled when empty.
	APIKey string

	// Model is the vision model name.
	Model string // default: "gpt-4o"

	// MaxTokens caps the completion size.
	MaxTokens int // default: 2000

	// Timeout is the deadline for one vision API call.
	Timeout time.Duration // default: 60s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys (for MVP; replace with DB later).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("AURORA_HOST", "0.0.0.0"),
			Port: envIntOr("AURORA_PORT", 8080),
			Mode: envOr("AURORA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("AURORA_HEADLESS", true),
			MaxPages:          envIntOr("AURORA_MAX_BROWSER_PAGES", 10),
			DefaultProxy:      os.Getenv("AURORA_PROXY"),
			NoSandbox:         envBoolOr("AURORA_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("AURORA_BROWSER_BIN"),
			NavigationTimeout: envDurationOr("AURORA_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("AURORA_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Fetch: FetchConfig{
			HTTPTimeout: envDurationOr("AURORA_HTTP_TIMEOUT", 10*time.Second),
			PageTimeout: envDurationOr("AURORA_PAGE_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			MaxPagesCap:       envIntOr("AURORA_MAX_PAGES_CAP", 50),
			LatencyBudget:     envDurationOr("AURORA_LATENCY_BUDGET", 45*time.Second),
			InterPageDelay:    envDurationOr("AURORA_INTER_PAGE_DELAY", 2*time.Second),
			ScrollMaxWait:     envDurationOr("AURORA_SCROLL_MAX_WAIT", 10*time.Second),
			LoopGuard:         envBoolOr("AURORA_LOOP_GUARD", true),
			LoopGuardDistance: envIntOr("AURORA_LOOP_GUARD_DISTANCE", 0),
			MaxRecordsPerPage: envIntOr("AURORA_MAX_RECORDS_PER_PAGE", 30),
			StrategyMemoryTTL: envDurationOr("AURORA_STRATEGY_MEMORY_TTL", 24*time.Hour),
		},
		OCR: OCRConfig{
			BaseURL:   envOr("AURORA_OCR_BASE_URL", "https://api.openai.com/v1"),
			APIKey:    os.Getenv("AURORA_OCR_API_KEY"),
			Model:     envOr("AURORA_OCR_MODEL", "gpt-4o"),
			MaxTokens: envIntOr("AURORA_OCR_MAX_TOKENS", 2000),
			Timeout:   envDurationOr("AURORA_OCR_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("AURORA_AUTH_ENABLED", true),
			APIKeys: envSliceOr("AURORA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("AURORA_RATE_RPS", 5.0),
			Burst:             envIntOr("AURORA_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("AURORA_LOG_LEVEL", "info"),
			Format: envOr("AURORA_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
