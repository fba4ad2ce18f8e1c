package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel slog.Level

	NaptanSource string
	NaptanDest   string
	NaptanPrefix string
	NaptanRTree  bool
	BatchSize    int

	WeatherBaseURL  string
	WeatherLat      float64
	WeatherLng      float64
	WeatherCacheTTL time.Duration

	TripUpdatesURL      string
	VehiclePositionsURL string
	SnapshotDir         string
	SnapshotInterval    time.Duration

	EventSourcesPath string
	EventsOut        string
	EventsInterval   time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

func Load() *Config {
	return &Config{
		LogLevel: getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),

		NaptanSource: getEnv("NAPTAN_SOURCE", "https://naptan.api.dft.gov.uk/v1/access-nodes?dataFormat=csv"),
		NaptanDest:   getEnv("NAPTAN_DEST", "data/stops.db"),
		NaptanPrefix: getEnv("NAPTAN_PREFIX", "all"),
		NaptanRTree:  getBoolEnv("NAPTAN_RTREE", true),
		BatchSize:    getIntEnv("NAPTAN_BATCH_SIZE", 500),

		WeatherBaseURL:  getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherLat:      getFloatEnv("WEATHER_LAT", 53.3811),
		WeatherLng:      getFloatEnv("WEATHER_LNG", -1.4701),
		WeatherCacheTTL: getDurationEnv("WEATHER_CACHE_TTL", 10*time.Minute),

		TripUpdatesURL:      getEnv("GTFSRT_TRIP_UPDATES_URL", ""),
		VehiclePositionsURL: getEnv("GTFSRT_VEHICLE_POSITIONS_URL", ""),
		SnapshotDir:         getEnv("SNAPSHOT_DIR", "data/snapshots"),
		SnapshotInterval:    getDurationEnv("SNAPSHOT_INTERVAL", 30*time.Second),

		EventSourcesPath: getEnv("EVENTS_SOURCES", "config/events.yaml"),
		EventsOut:        getEnv("EVENTS_OUT", "data/events.json"),
		EventsInterval:   getDurationEnv("EVENTS_INTERVAL", 6*time.Hour),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", 24*time.Hour),
	}
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

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
