package ratelimit

import (
	"net/http"
	"time"

	"coach-gateway/middleware/ratelimit/application"
	"coach-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"

	defaultFailOpenLogEvery = 10 * time.Second
)

type Options struct {
	Store  domain.CounterStore
	Policy domain.Policy
	Stats  domain.StatsStore

	KeyFn KeyFunc
	// TrustedProxies só é usado quando KeyFn é nil. nil confia em todos.
	TrustedProxies ProxyMatcher

	Logger logrus.FieldLogger
	// FailOpenLogEvery limita os logs de fail-open deste middleware.
	// 0 usa 10s; < 0 loga toda falha.
	FailOpenLogEvery time.Duration
}

// Middleware cria o gate de uma rota. Policy inválida é erro de programação
// e causa panic na montagem das rotas.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if err := opts.Policy.Validate(); err != nil {
		panic(err)
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustedProxies)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.FailOpenLogEvery == 0 {
		opts.FailOpenLogEvery = defaultFailOpenLogEvery
	}

	var failLog *rate.Sometimes
	if opts.FailOpenLogEvery > 0 {
		failLog = &rate.Sometimes{First: 1, Interval: opts.FailOpenLogEvery}
	}

	svc := application.Service{Store: opts.Store}
	policy := opts.Policy
	limit := formatInt(policy.Max)

	logFailOpen := func(r *http.Request, key string, err error) {
		entry := opts.Logger.WithFields(logrus.Fields{
			"module": "ratelimit",
			"bucket": policy.Bucket,
			"key":    key,
			"path":   r.URL.Path,
			"error":  err,
		})
		if failLog == nil {
			entry.Warn("ratelimit: store unavailable, allowing request")
			return
		}
		failLog.Do(func() { entry.Warn("ratelimit: store unavailable, allowing request") })
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			dec := svc.Decide(r.Context(), policy, key)

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Bucket:   policy.Bucket,
					Key:      key,
					Allowed:  dec.Allowed,
					FailOpen: dec.FailedOpen(),
					Method:   r.Method,
					Path:     r.URL.Path,
					At:       time.Now(),
				})
			}

			if dec.FailedOpen() {
				if dec.StoreDown {
					logFailOpen(r, key, dec.Err)
				} else {
					opts.Logger.WithFields(logrus.Fields{
						"module": "ratelimit",
						"bucket": policy.Bucket,
						"key":    key,
						"error":  dec.Err,
					}).Error("ratelimit: unexpected consume error, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}

			if dec.HasResult {
				h := w.Header()
				h.Set(HeaderLimit, limit)
				h.Set(HeaderRemaining, formatInt(dec.Result.Remaining))
				h.Set(HeaderReset, resetSeconds(dec.Result.ResetAt))
			}

			if !dec.Allowed {
				w.Header().Set(HeaderRetryAfter, formatInt(int(dec.RetryAfter/time.Second)))
				writeJSONError(w, http.StatusTooManyRequests, policy.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
