package ratelimit

import (
	"net/http"
	"time"

	"coach-gateway/middleware/ratelimit/application"
	"coach-gateway/middleware/ratelimit/infra"

	"github.com/sirupsen/logrus"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	Message        string
	Logger         logrus.FieldLogger
}

// ConcurrencyMiddleware limita requisições em voo. Max <= 0 desliga.
// Cliente que desiste enquanto espera vaga não recebe resposta.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Message == "" {
		opts.Message = "Server is busy. Please try again shortly."
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	pool := infra.NewChanPool(opts.Max)
	svc := application.ConcurrencyService{
		Pool:           pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if application.IsClientGone(err) {
					return
				}
				opts.Logger.WithFields(logrus.Fields{
					"module":    "concurrency",
					"in_flight": pool.InFlight(),
					"max":       pool.Cap(),
					"path":      r.URL.Path,
				}).Debug("concurrency: no slot available")
				writeJSONError(w, opts.RejectStatus, opts.Message)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
