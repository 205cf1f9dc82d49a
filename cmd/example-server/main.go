package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coach-gateway/middleware/ratelimit"
	"coach-gateway/middleware/ratelimit/domain"
	"coach-gateway/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	// Exemplo: o gate dentro do próprio webserver (sem proxy), com store em memória
	log := logrus.New()
	store := infra.NewMemoryCounterStore()
	defer func() { _ = store.Close() }()

	stats := infra.NewMemoryStatsStore()

	limit := func(p domain.Policy) func(http.Handler) http.Handler {
		return ratelimit.Middleware(ratelimit.Options{
			Store:  store,
			Policy: p,
			Stats:  stats,
			Logger: log,
		})
	}

	r := chi.NewRouter()
	r.With(limit(ratelimit.AuthPolicy)).Post("/api/auth/login", ok("logged in"))
	r.With(limit(ratelimit.InterviewPolicy)).Post("/api/interview/start", ok("interview started"))
	r.With(limit(ratelimit.FeedbackPolicy)).Post("/api/interview/feedback", ok("feedback generated"))
	r.With(limit(ratelimit.ResumePolicy)).Post("/api/resume/analyze", ok("resume analyzed"))
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(stats.ByBucket())
	})

	h := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 50, Logger: log})(r)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("server error: %v", err)
	}
}

func ok(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message})
	}
}
