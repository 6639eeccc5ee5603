package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	GameTTL          time.Duration
	ArchiveListLimit int
	MaxLiveGames     int

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:         ":8080",
		GameTTL:          24 * time.Hour,
		ArchiveListLimit: 50,
		MaxLiveGames:     500,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("CHECKERS_GAME_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GameTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_ARCHIVE_LIST_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ArchiveListLimit = n
		}
	}
	// 0 lifts the cap.
	if v := strings.TrimSpace(os.Getenv("CHECKERS_MAX_LIVE_GAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxLiveGames = n
		}
	}

	if cfg.RedisURL != "" {
		u, err := url.Parse(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		if u.Scheme != "redis" && u.Scheme != "rediss" {
			return nil, fmt.Errorf("REDIS_URL: unsupported scheme %q", u.Scheme)
		}
	}
	return cfg, nil
}
