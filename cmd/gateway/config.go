package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"coach-gateway/middleware/ratelimit/infra"

	"github.com/sirupsen/logrus"
)

type config struct {
	listenAddr  string
	upstreamURL string

	store          infra.StoreConfig
	trustedProxies []string

	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsSeries        string
	rateStatsTrackKeys     bool

	logLevel  logrus.Level
	logFormat string
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = strings.TrimSpace(os.Getenv("UPSTREAM_URL"))

	cfg.store = infra.StoreConfig{
		RESTURL:       strings.TrimSpace(os.Getenv("REDIS_REST_URL")),
		RESTToken:     strings.TrimSpace(os.Getenv("REDIS_REST_TOKEN")),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvIntDefault("REDIS_DB", 0),
		Timeout:       getenvDurationDefault("RATE_STORE_TIMEOUT", 2*time.Second),
		SweepEvery:    getenvDurationDefault("RATE_SWEEP_EVERY", time.Minute),
		LogDecisions:  getenvBoolDefault("RATE_LOG_DECISIONS", false),
	}
	cfg.trustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsSeries = getenvDefault("RATE_STATS_SERIES", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	cfg.logFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))
	lvl, err := logrus.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.logLevel = lvl

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	u, err := url.Parse(cfg.upstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return config{}, fmt.Errorf("invalid UPSTREAM_URL %q", cfg.upstreamURL)
	}
	if cfg.store.Timeout <= 0 {
		return config{}, errors.New("RATE_STORE_TIMEOUT must be > 0")
	}
	if cfg.store.SweepEvery <= 0 {
		return config{}, errors.New("RATE_SWEEP_EVERY must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return config{}, fmt.Errorf("invalid LOG_FORMAT %q (text|json)", cfg.logFormat)
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
