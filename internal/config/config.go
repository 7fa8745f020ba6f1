package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	CalibrationTrials int
	LatencyBufferMs   float64 // margin added to the calibrated compensation
	LightIntervalMs   int
	LightsOutMinMs    int // random lights-out delay lower bound, inclusive
	LightsOutMaxMs    int // random lights-out delay upper bound, exclusive
}

func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CalibrationTrials: getEnvInt("CALIBRATION_TRIALS", 20),
		LatencyBufferMs:   getEnvFloat("LATENCY_BUFFER_MS", 0),
		LightIntervalMs:   getEnvInt("LIGHT_INTERVAL_MS", 1000),
		LightsOutMinMs:    getEnvInt("LIGHTS_OUT_MIN_MS", 1000),
		LightsOutMaxMs:    getEnvInt("LIGHTS_OUT_MAX_MS", 5000),
	}
	return cfg
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
