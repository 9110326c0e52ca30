// Package config loads runtime configuration from the environment, with
// an optional .env file for development.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port     int
	DataDir  string
	LogLevel string
	DevMode  bool

	// RefreshInterval is the bar-refresh cadence in minutes.
	RefreshInterval int
	// TrackedSymbols are refreshed on schedule into the bar store.
	TrackedSymbols []string

	// TradingDays is the default annualization base.
	TradingDays int
	// RiskFreeRate is the default annual risk-free rate (decimal).
	RiskFreeRate float64
	// DefaultBenchmark is the index used for beta/alpha.
	DefaultBenchmark string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DataDir:          getEnv("DATA_DIR", "./data"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		RefreshInterval:  getEnvAsInt("REFRESH_INTERVAL_MINUTES", 60),
		TrackedSymbols:   getEnvAsList("TRACKED_SYMBOLS", nil),
		TradingDays:      getEnvAsInt("TRADING_DAYS", 252),
		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 0.30),
		DefaultBenchmark: getEnv("DEFAULT_BENCHMARK", "XU100"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
