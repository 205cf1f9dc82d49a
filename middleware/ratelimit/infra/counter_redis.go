package infra

import (
	"context"
	"fmt"
	"time"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore é a variante remota sobre Redis nativo (RESP).
//
// INCR, PEXPIRE NX e PTTL vão num único MULTI/EXEC; dois gateways nunca
// disputam quem seta a expiração. PEXPIRE ... NX exige Redis >= 7.
type RedisCounterStore struct {
	rdb     redis.UniversalClient
	timeout time.Duration
}

type RedisOption func(*RedisCounterStore)

// WithRedisTimeout limita cada Consume. <= 0 usa só o ctx do chamador.
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(s *RedisCounterStore) { s.timeout = d }
}

func NewRedisCounterStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisCounterStore {
	s := &RedisCounterStore{rdb: rdb, timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume implementa domain.CounterStore.
func (s *RedisCounterStore) Consume(ctx context.Context, p domain.ConsumeParams) (domain.ConsumeResult, error) {
	if err := p.Validate(); err != nil {
		return domain.ConsumeResult{}, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := time.Now()
	key := p.NamespacedKey()
	windowMs := max(p.Window.Milliseconds(), 1)

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Do(ctx, "PEXPIRE", key, windowMs, "NX")
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return domain.ConsumeResult{}, domain.NewStoreUnavailableError("redis multi/exec", err)
	}

	count := incr.Val()
	if count < 1 {
		return domain.ConsumeResult{}, domain.NewInvalidStoreResponseError(fmt.Sprintf("incr returned %d", count))
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = p.Window
	}
	return domain.NewConsumeResult(count, p.Max, now, ttl), nil
}

// Close fecha o client Redis.
func (s *RedisCounterStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
