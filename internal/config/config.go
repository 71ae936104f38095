package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"

	StrategyHeuristic = "heuristic"
	StrategyDelegated = "delegated"

	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	LLMProvider   string
	ModelName     string
	GeminiBaseURL string
	GeminiAPIKey  string // preset credential for the console, never required

	PhaseStrategy string
	PromptsFile   string
	Cooldown      time.Duration

	StorageBackend string // empty lets each binary pick its default
	StorePath      string
	RedisURL       string
	SessionTTL     time.Duration
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	logLevel, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cooldown, err := parseDuration("COOLDOWN", "3s")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := parseDuration("SESSION_TTL", "0")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       logLevel,
		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		ModelName:      getEnv("MODEL_NAME", "gemini-1.5-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		PhaseStrategy:  strings.ToLower(getEnv("PHASE_STRATEGY", StrategyHeuristic)),
		PromptsFile:    os.Getenv("PROMPTS_FILE"),
		Cooldown:       cooldown,
		StorageBackend: strings.ToLower(os.Getenv("STORAGE_BACKEND")),
		StorePath:      getEnv("STORE_PATH", defaultStorePath()),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		SessionTTL:     sessionTTL,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderGenAI:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q (supported: %s, %s)", c.LLMProvider, ProviderGemini, ProviderGenAI)
	}
	switch c.PhaseStrategy {
	case StrategyHeuristic, StrategyDelegated:
	default:
		return fmt.Errorf("invalid PHASE_STRATEGY %q (supported: %s, %s)", c.PhaseStrategy, StrategyHeuristic, StrategyDelegated)
	}
	switch c.StorageBackend {
	case "", BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (supported: %s, %s, %s)", c.StorageBackend, BackendMemory, BackendFile, BackendRedis)
	}
	return nil
}

// Backend returns the configured storage backend, or def when none is set.
func (c *Config) Backend(def string) string {
	if c.StorageBackend == "" {
		return def
	}
	return c.StorageBackend
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", level)
	}
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".identity-crisis.json"
	}
	return filepath.Join(home, ".identity-crisis", "game.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
