package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// Config holds the runtime configuration, read from the environment and
// an optional .env file.
type Config struct {
	DataDir string

	// Outbound requests
	RequestTimeout  time.Duration
	MaxResponseSize int64
	RateLimitRPS    float64
	RateLimitBurst  int

	// Prescript
	ScriptTimeout time.Duration

	// Stored records
	RedactHeaders bool

	// Logging
	LogLevel  string
	LogFile   string
	LogStderr bool

	// API server
	BindAddr string

	Settings Settings
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	dataDir, err := expandHome(getEnvOrDefault("APIREPLAY_DATA_DIR", "~/.apireplay"))
	if err != nil {
		return nil, fmt.Errorf("invalid APIREPLAY_DATA_DIR: %w", err)
	}

	cfg := &Config{
		DataDir:        dataDir,
		RateLimitBurst: getEnvIntOrDefault("APIREPLAY_RATE_LIMIT_BURST", 1),
		RedactHeaders:  getEnvBoolOrDefault("APIREPLAY_REDACT_HEADERS", false),
		LogLevel:       strings.ToLower(getEnvOrDefault("APIREPLAY_LOG_LEVEL", "info")),
		LogFile:        getEnvOrDefault("APIREPLAY_LOG_FILE", filepath.Join(dataDir, "apireplay.log")),
		LogStderr:      getEnvBoolOrDefault("APIREPLAY_LOG_STDERR", false),
		BindAddr:       getEnvOrDefault("APIREPLAY_BIND_ADDR", "127.0.0.1:8089"),
	}

	cfg.RequestTimeout, err = time.ParseDuration(getEnvOrDefault("APIREPLAY_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid APIREPLAY_REQUEST_TIMEOUT: %w", err)
	}

	cfg.ScriptTimeout, err = time.ParseDuration(getEnvOrDefault("APIREPLAY_SCRIPT_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid APIREPLAY_SCRIPT_TIMEOUT: %w", err)
	}

	cfg.MaxResponseSize, err = strconv.ParseInt(getEnvOrDefault("APIREPLAY_MAX_RESPONSE_SIZE", "52428800"), 10, 64) // 50MB
	if err != nil {
		return nil, fmt.Errorf("invalid APIREPLAY_MAX_RESPONSE_SIZE: %w", err)
	}

	cfg.RateLimitRPS, err = strconv.ParseFloat(getEnvOrDefault("APIREPLAY_RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid APIREPLAY_RATE_LIMIT_RPS: %w", err)
	}

	cfg.Settings, err = LoadSettings(dataDir)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Limiter returns the outbound rate limiter, or nil when unlimited.
func (c *Config) Limiter() *rate.Limiter {
	if c.RateLimitRPS <= 0 {
		return nil
	}
	burst := c.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RateLimitRPS), burst)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
