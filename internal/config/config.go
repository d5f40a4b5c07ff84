package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	WordsFile      string
	AllowedOrigins []string

	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSSendBuffer     int
	WSRateLimitRPS   float64
	WSRateLimitBurst int

	HTTPRateLimitRPS   float64
	HTTPRateLimitBurst int

	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env")
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		WordsFile:      getEnv("WORDS_FILE", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		WSPingInterval:   getEnvDuration("WS_PING_INTERVAL", 30*time.Second),
		WSWriteTimeout:   getEnvDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		WSSendBuffer:     getEnvInt("WS_SEND_BUFFER", 64),
		WSRateLimitRPS:   getEnvFloat("WS_RATE_LIMIT_RPS", 10),
		WSRateLimitBurst: getEnvInt("WS_RATE_LIMIT_BURST", 20),

		HTTPRateLimitRPS:   getEnvFloat("HTTP_RATE_LIMIT_RPS", 0),
		HTTPRateLimitBurst: getEnvInt("HTTP_RATE_LIMIT_BURST", 20),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Int("default", fallback).Msg("invalid int, using default")
		return fallback
	}
	return i
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Float64("default", fallback).Msg("invalid number, using default")
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Dur("default", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(s string) []string {
	return lo.Uniq(lo.FilterMap(strings.Split(s, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	}))
}
