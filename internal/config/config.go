package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as "90m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Port string `toml:"port"`

	// Auth and edge
	APIKey         string  `toml:"api_key"`
	AllowOrigin    string  `toml:"allow_origin"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
	MaxUploadBytes int64   `toml:"max_upload_bytes"`

	// Persistence
	StoreBackend    string `toml:"store_backend"`
	SQLitePath      string `toml:"sqlite_path"`
	PathstoreURL    string `toml:"pathstore_url"`
	PathstoreAPIKey string `toml:"pathstore_api_key"`

	// Language model
	LLMProvider     string `toml:"llm_provider"`
	OllamaURL       string `toml:"ollama_url"`
	OllamaModel     string `toml:"ollama_model"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	AnthropicModel  string `toml:"anthropic_model"`
	GeminiAPIKey    string `toml:"gemini_api_key"`
	GeminiModel     string `toml:"gemini_model"`
	LLMCheckAnswers bool   `toml:"llm_check_answers"`

	// Section classifier
	ClassifierURL  string `toml:"classifier_url"`
	ClassifierTopK int    `toml:"classifier_top_k"`

	// Places
	PlacesAPIKey  string `toml:"google_places_api_key"`
	PlacesRadiusM int    `toml:"places_radius_m"`

	// PDF rendering
	ChromeBin           string `toml:"chrome_bin"`
	MaxConcurrentRender int    `toml:"max_concurrent_render"`

	// Sessions
	SessionTTL       Duration `toml:"session_ttl"`
	FieldCatalog     string   `toml:"field_catalog"`
	FieldCatalogPath string   `toml:"field_catalog_path"`
	StrictPaths      bool     `toml:"strict_paths"`
}

func defaults() Config {
	return Config{
		Port:                "5000",
		AllowOrigin:         "*",
		RateLimitRPS:        10,
		RateLimitBurst:      20,
		MaxUploadBytes:      10 << 20,
		StoreBackend:        "sqlite",
		SQLitePath:          "data/firdesk.db",
		PathstoreURL:        "http://localhost:8080",
		LLMProvider:         "ollama",
		OllamaURL:           "http://localhost:11434",
		OllamaModel:         "llama3.2:3b",
		AnthropicModel:      "claude-3-5-haiku-latest",
		GeminiModel:         "gemini-2.0-flash",
		ClassifierURL:       "http://localhost:8000",
		ClassifierTopK:      3,
		PlacesRadiusM:       5000,
		MaxConcurrentRender: 2,
		SessionTTL:          Duration{2 * time.Hour},
		FieldCatalog:        "fir",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// FIRDESK_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("FIRDESK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.APIKey = envOr("FIRDESK_API_KEY", cfg.APIKey)
	cfg.AllowOrigin = envOr("ALLOW_ORIGIN", cfg.AllowOrigin)
	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.StoreBackend = envOr("STORE_BACKEND", cfg.StoreBackend)
	cfg.SQLitePath = envOr("SQLITE_PATH", cfg.SQLitePath)
	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)

	cfg.LLMProvider = envOr("LLM_PROVIDER", cfg.LLMProvider)
	cfg.OllamaURL = envOr("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaModel = envOr("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envOr("GEMINI_MODEL", cfg.GeminiModel)
	cfg.LLMCheckAnswers = envBool("LLM_CHECK_ANSWERS", cfg.LLMCheckAnswers)

	cfg.ClassifierURL = envOr("CLASSIFIER_URL", cfg.ClassifierURL)
	cfg.ClassifierTopK = envInt("CLASSIFIER_TOP_K", cfg.ClassifierTopK)

	cfg.PlacesAPIKey = envOr("GOOGLE_PLACES_API_KEY", cfg.PlacesAPIKey)
	cfg.PlacesRadiusM = envInt("PLACES_RADIUS_M", cfg.PlacesRadiusM)

	cfg.ChromeBin = envOr("CHROME_BIN", cfg.ChromeBin)
	cfg.MaxConcurrentRender = envInt("MAX_CONCURRENT_RENDER", cfg.MaxConcurrentRender)

	cfg.SessionTTL.Duration = envDuration("SESSION_TTL", cfg.SessionTTL.Duration)
	cfg.FieldCatalog = envOr("FIELD_CATALOG", cfg.FieldCatalog)
	cfg.FieldCatalogPath = envOr("FIELD_CATALOG_PATH", cfg.FieldCatalogPath)
	cfg.StrictPaths = envBool("STRICT_PATHS", cfg.StrictPaths)

	d := defaults()
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = d.RateLimitBurst
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.ClassifierTopK <= 0 {
		cfg.ClassifierTopK = d.ClassifierTopK
	}
	if cfg.PlacesRadiusM <= 0 {
		cfg.PlacesRadiusM = d.PlacesRadiusM
	}
	if cfg.MaxConcurrentRender <= 0 {
		cfg.MaxConcurrentRender = d.MaxConcurrentRender
	}
	if cfg.SessionTTL.Duration <= 0 {
		cfg.SessionTTL = d.SessionTTL
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "pathstore":
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be sqlite or pathstore, got %q", c.StoreBackend)
	}

	switch c.LLMProvider {
	case "ollama":
	case "claude":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for LLM_PROVIDER=claude")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be ollama, claude or gemini, got %q", c.LLMProvider)
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.FieldCatalog == "" && c.FieldCatalogPath == "" {
		return fmt.Errorf("FIELD_CATALOG or FIELD_CATALOG_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
