package infra

import (
	"context"
	"strings"
	"time"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava as decisões do gate em hashes:
//
//	<prefix>:total                  allowed | denied | fail_open
//	<prefix>:bucket                 <bucket>:<resultado>
//	<prefix>:route                  "<método> <path>":<resultado>
//	<prefix>:minute:<yyyymmddhhmm>  <bucket>:<resultado>  (expira em ttl)
//	<prefix>:key:<bucket>:<key>     <resultado>           (opcional, expira em ttl)
type RedisStatsStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration

	perMinute bool
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithStatsTTL vale só para as hashes por minuto e por key.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsSeries aceita "minute" (padrão) ou "none".
func WithStatsSeries(series string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.perMinute = strings.EqualFold(strings.TrimSpace(series), "minute")
	}
}

// WithStatsTrackKeys liga a hash por cliente. Cuidado com a cardinalidade.
func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    "ratelimit:stats",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func statsField(ev domain.StatsEvent) string {
	switch {
	case ev.FailOpen:
		return "fail_open"
	case ev.Allowed:
		return "allowed"
	default:
		return "denied"
	}
}

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Record implementa domain.StatsStore num único round trip.
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	outcome := statsField(ev)
	bucket := strings.TrimSpace(ev.Bucket)
	bucketOutcome := outcome
	if bucket != "" {
		bucketOutcome = bucket + ":" + outcome
	}
	route := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
	client := strings.TrimSpace(ev.Key)

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.key("total"), outcome, 1)
		if bucket != "" {
			pipe.HIncrBy(ctx, s.key("bucket"), bucketOutcome, 1)
		}
		if route != "" {
			pipe.HIncrBy(ctx, s.key("route"), route+":"+outcome, 1)
		}
		if s.perMinute {
			s.incrExpiring(ctx, pipe, s.key("minute", at.UTC().Format("200601021504")), bucketOutcome)
		}
		if s.trackKeys && client != "" {
			s.incrExpiring(ctx, pipe, s.key("key", bucket, client), outcome)
		}
		return nil
	})
	return err
}
