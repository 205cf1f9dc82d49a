package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"coach-gateway/middleware/ratelimit"
	"coach-gateway/middleware/ratelimit/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type routerDeps struct {
	store    domain.CounterStore
	stats    domain.StatsStore
	trusted  ratelimit.ProxyMatcher
	logger   logrus.FieldLogger
	upstream http.Handler
}

// newRouter pendura um limiter por política nas rotas sensíveis e manda todo
// o resto direto para o upstream.
func newRouter(d routerDeps) http.Handler {
	limit := func(p domain.Policy) func(http.Handler) http.Handler {
		return ratelimit.Middleware(ratelimit.Options{
			Store:          d.store,
			Policy:         p,
			Stats:          d.stats,
			TrustedProxies: d.trusted,
			Logger:         d.logger,
		})
	}

	// signup e login dividem o mesmo bucket
	auth := limit(ratelimit.AuthPolicy)

	r := chi.NewRouter()
	r.Use(lowerRoutePath, middleware.StripSlashes)

	r.Get("/healthz", healthz)

	r.With(auth).Post("/api/auth/signup", d.upstream.ServeHTTP)
	r.With(auth).Post("/api/auth/login", d.upstream.ServeHTTP)
	r.With(limit(ratelimit.InterviewPolicy)).Post("/api/interview/start", d.upstream.ServeHTTP)
	r.With(limit(ratelimit.FeedbackPolicy)).Post("/api/interview/feedback", d.upstream.ServeHTTP)
	r.With(limit(ratelimit.ResumePolicy)).Post("/api/resume/analyze", d.upstream.ServeHTTP)

	r.NotFound(d.upstream.ServeHTTP)
	r.MethodNotAllowed(d.upstream.ServeHTTP)
	return r
}

// lowerRoutePath roteia pelo path em minúsculas, como o upstream (Express)
// casa as rotas. A URL repassada ao upstream não muda.
func lowerRoutePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		path := r.URL.Path
		if rctx != nil && rctx.RoutePath != "" {
			path = rctx.RoutePath
		}
		if lower := strings.ToLower(path); rctx != nil && lower != path {
			rctx.RoutePath = lower
		}
		next.ServeHTTP(w, r)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
