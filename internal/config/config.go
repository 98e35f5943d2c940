// Package config loads server settings from a .env file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string // empty disables action recording
	Secret      string
	TurnTimeout time.Duration // zero disables the stall timer
	RoomTTL     time.Duration
}

// Load reads .env (if present) and the environment. SECRET and
// DATABASE_URL are required.
func Load(log *logrus.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env file")
	}

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		Secret:      os.Getenv("SECRET"),
	}
	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	timeoutSec, err := intEnv("TURN_TIMEOUT_SEC", 90)
	if err != nil {
		return Config{}, err
	}
	cfg.TurnTimeout = time.Duration(timeoutSec) * time.Second

	ttlDays, err := intEnv("ROOM_TTL_DAYS", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.RoomTTL = time.Duration(ttlDays) * 24 * time.Hour

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}
