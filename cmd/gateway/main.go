package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"coach-gateway/middleware/ratelimit"
	"coach-gateway/middleware/ratelimit/domain"
	"coach-gateway/middleware/ratelimit/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env é opcional; variáveis reais do ambiente têm precedência
	_ = godotenv.Load()

	log := logrus.New()
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	configureLogger(log, cfg)

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %v", err)
	}
	proxy := newProxy(target, log)

	store, closer, err := infra.NewCounterStore(cfg.store, log)
	if err != nil {
		log.Fatalf("rate store error: %v", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("rate store close")
		}
	}()

	var trusted ratelimit.ProxyMatcher
	if len(cfg.trustedProxies) > 0 {
		tp, err := infra.ParseTrustedProxies(cfg.trustedProxies)
		if err != nil {
			log.Fatalf("invalid TRUSTED_PROXIES: %v", err)
		}
		trusted = tp
	}

	var statsStore domain.StatsStore
	if cfg.rateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsSeries(cfg.rateStatsSeries),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	h := newRouter(routerDeps{
		store:    store,
		stats:    statsStore,
		trusted:  trusted,
		logger:   log,
		upstream: proxy,
	})
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         log,
	})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr":     cfg.listenAddr,
		"upstream": target.String(),
		"store":    cfg.store.Kind(),
	}).Info("gateway listening")
	log.WithFields(logrus.Fields{
		"trusted_proxies": len(cfg.trustedProxies),
		"stats":           cfg.rateStatsEnabled,
		"concurrency":     cfg.concurrencyMax,
		"acquire_timeout": cfg.concurrencyTimeout,
	}).Debug("gateway settings")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("server error: %v", err)
	}
}

func configureLogger(log *logrus.Logger, cfg config) {
	log.SetLevel(cfg.logLevel)
	if cfg.logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func newProxy(target *url.URL, log logrus.FieldLogger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithField("path", r.URL.Path).Error("proxy error")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"message": "bad gateway",
		})
	}
	return proxy
}
