package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Location        *time.Location

	MapsAPIKey          string
	MapsAPIURL          string
	DirectionsTimeout   time.Duration
	SearchTimeout       time.Duration
	DirectionsCacheSize int
	DirectionsCacheTTL  time.Duration
	MaxConcurrentLegs   int

	StationsFile string
	GTFSFeed     string
	GTFSCacheDir string

	GoTransitAPIURL        string
	GoTransitAPIKey        string
	ServiceUpdatesEnabled  bool
	ServiceUpdatesInterval time.Duration

	GeminiAPIKey     string
	GeminiAPIURL     string
	AssistantTimeout time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionIdleTimeout time.Duration

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string

	MetricsEnabled bool
}

// Load reads the environment, after applying a .env file from the working
// directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	apiKey := os.Getenv("MAPS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("MAPS_API_KEY environment variable is required")
	}

	tz := getEnv("TZ", "America/Toronto")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", tz, err)
	}

	return &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 45*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		Location:        loc,

		MapsAPIKey:          apiKey,
		MapsAPIURL:          getEnv("MAPS_API_URL", "https://maps.googleapis.com/maps/api"),
		DirectionsTimeout:   getDurationEnv("DIRECTIONS_TIMEOUT", 10*time.Second),
		SearchTimeout:       getDurationEnv("SEARCH_TIMEOUT", 30*time.Second),
		DirectionsCacheSize: getIntEnv("DIRECTIONS_CACHE_SIZE", 1024),
		DirectionsCacheTTL:  getDurationEnv("DIRECTIONS_CACHE_TTL", 5*time.Minute),
		MaxConcurrentLegs:   getIntEnv("MAX_CONCURRENT_LEGS", 8),

		StationsFile: getEnv("STATIONS_FILE", ""),
		GTFSFeed:     getEnv("GTFS_FEED", ""),
		GTFSCacheDir: getEnv("GTFS_CACHE_DIR", ""),

		GoTransitAPIURL:        getEnv("GOTRANSIT_API_URL", "https://api.gotransit.com/api/ServiceataGlance"),
		GoTransitAPIKey:        getEnv("GOTRANSIT_API_KEY", ""),
		ServiceUpdatesEnabled:  getBoolEnv("SERVICE_UPDATES_ENABLED", true),
		ServiceUpdatesInterval: getDurationEnv("SERVICE_UPDATES_INTERVAL", 5*time.Minute),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:     getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1/models/gemini-2.0-flash:generateContent"),
		AssistantTimeout: getDurationEnv("ASSISTANT_TIMEOUT", 15*time.Second),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		SessionIdleTimeout: getDurationEnv("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),

		MetricsEnabled: getBoolEnv("METRICS_ENABLED", true),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
