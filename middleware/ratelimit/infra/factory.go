package infra

import (
	"context"
	"io"
	"strings"
	"time"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreREST   StoreKind = "rest"
	StoreRedis  StoreKind = "redis"
)

// StoreConfig reúne os parâmetros de conexão que escolhem o backend.
type StoreConfig struct {
	RESTURL   string
	RESTToken string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Timeout time.Duration
	// SweepEvery <= 0 usa 1m; o store local sempre roda o janitor.
	SweepEvery time.Duration

	// LogDecisions envolve o store com LoggingCounterStore.
	LogDecisions bool
}

// Kind aplica a preferência: REST (URL e token presentes), depois Redis
// nativo (endereço presente), senão memória.
func (c StoreConfig) Kind() StoreKind {
	if strings.TrimSpace(c.RESTURL) != "" && strings.TrimSpace(c.RESTToken) != "" {
		return StoreREST
	}
	if strings.TrimSpace(c.RedisAddr) != "" {
		return StoreRedis
	}
	return StoreMemory
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// NewCounterStore constrói o único store do processo. O chamador injeta o
// store nos middlewares e chama o closer no shutdown.
func NewCounterStore(cfg StoreConfig, logger logrus.FieldLogger) (domain.CounterStore, io.Closer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		store  domain.CounterStore
		closer io.Closer = nopCloser
	)

	switch cfg.Kind() {
	case StoreREST:
		var opts []RESTOption
		if cfg.Timeout > 0 {
			opts = append(opts, WithRESTTimeout(cfg.Timeout))
		}
		s, err := NewRESTCounterStore(cfg.RESTURL, cfg.RESTToken, opts...)
		if err != nil {
			return nil, nil, err
		}
		store = s

	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		// Redis fora do ar na subida não impede o boot: o gate faz fail-open.
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warnf("ratelimit: redis %s not reachable at startup", cfg.RedisAddr)
		}
		cancel()

		var opts []RedisOption
		if cfg.Timeout > 0 {
			opts = append(opts, WithRedisTimeout(cfg.Timeout))
		}
		s := NewRedisCounterStore(rdb, opts...)
		store, closer = s, s

	default:
		sweep := cfg.SweepEvery
		if sweep <= 0 {
			sweep = time.Minute
		}
		s := NewMemoryCounterStore(WithSweepEvery(sweep))
		store, closer = s, s
	}

	if cfg.LogDecisions {
		store = NewLoggingCounterStore(store, logger)
	}
	return store, closer, nil
}
