package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBase           = "https://generativelanguage.googleapis.com"
	DefaultCurrentGeneration = "2.5-"
)

var (
	DefaultAPIVersions     = []string{"v1beta", "v1"}
	DefaultPreferredModels = []string{
		"gemini-2.5-flash",
		"gemini-2.5-flash-preview-05-20",
		"gemini-2.5-pro-preview-03-25",
		"gemini-2.5-pro-preview-05-06",
		"gemini-pro",
	}
)

type Config struct {
	Port int

	GeminiAPIKey      string
	GeminiAPIBase     string
	APIVersions       []string
	PreferredModels   []string
	CurrentGeneration string

	GlobalDeadline   time.Duration
	AttemptTimeout   time.Duration
	DiscoveryTimeout time.Duration

	MaxOutputTokens int
	Temperature     float64
	TopP            float64

	DatabaseURL       string
	DBPoolSize        int
	RedisURL          string
	DiscoveryCacheTTL time.Duration

	CORSAllowedOrigins []string
	LogLevel           string
	LogPretty          bool
}

// Load configuration from env. A .env file in the working directory is
// read first if present; real environment variables win.
//
// A missing GEMINI_API_KEY is not an error here: requests fail with a
// configuration error instead, so health and metrics stay reachable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvInt("PORT", 8080),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiAPIBase:      strings.TrimRight(getEnv("GEMINI_API_BASE", DefaultAPIBase), "/"),
		APIVersions:        getEnvList("GEMINI_API_VERSIONS", DefaultAPIVersions),
		PreferredModels:    getEnvList("GEMINI_PREFERRED_MODELS", DefaultPreferredModels),
		CurrentGeneration:  getEnv("GEMINI_CURRENT_GENERATION", DefaultCurrentGeneration),
		GlobalDeadline:     getEnvDuration("GLOBAL_DEADLINE", 55*time.Second),
		AttemptTimeout:     getEnvDuration("ATTEMPT_TIMEOUT", 20*time.Second),
		DiscoveryTimeout:   getEnvDuration("DISCOVERY_TIMEOUT", 8*time.Second),
		MaxOutputTokens:    getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 0),
		Temperature:        getEnvFloat("GEMINI_TEMPERATURE", 0),
		TopP:               getEnvFloat("GEMINI_TOP_P", 0),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBPoolSize:         getEnvInt("DB_POOL_SIZE", 5),
		RedisURL:           os.Getenv("REDIS_URL"),
		DiscoveryCacheTTL:  getEnvDuration("DISCOVERY_CACHE_TTL", 10*time.Minute),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvBool("LOG_PRETTY", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RequestTimeout bounds a whole plan request: the global deadline plus
// room for the last attempt that started before it.
func (c *Config) RequestTimeout() time.Duration {
	return c.GlobalDeadline + c.AttemptTimeout + 5*time.Second
}

func (c *Config) validate() error {
	if len(c.APIVersions) == 0 {
		return fmt.Errorf("GEMINI_API_VERSIONS must name at least one version")
	}
	for _, v := range c.APIVersions {
		if v != "v1" && v != "v1beta" {
			return fmt.Errorf("unsupported api version %q", v)
		}
	}
	if c.GlobalDeadline <= 0 || c.AttemptTimeout <= 0 || c.DiscoveryTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

// comma separated, blanks dropped
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
