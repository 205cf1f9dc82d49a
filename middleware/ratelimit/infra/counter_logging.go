package infra

import (
	"context"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
)

// LoggingCounterStore decora um CounterStore registrando falhas (error) e
// estouros de limite (warn). Não altera resultado nem erro.
type LoggingCounterStore struct {
	next   domain.CounterStore
	logger logrus.FieldLogger
}

func NewLoggingCounterStore(next domain.CounterStore, logger logrus.FieldLogger) *LoggingCounterStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingCounterStore{next: next, logger: logger}
}

func (l *LoggingCounterStore) Consume(ctx context.Context, p domain.ConsumeParams) (domain.ConsumeResult, error) {
	res, err := l.next.Consume(ctx, p)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"module": "ratelimit",
			"bucket": p.Bucket,
			"key":    p.Key,
			"error":  err,
		}).Errorf("ratelimit: consume failed [key: %s]", p.NamespacedKey())
		return res, err
	}

	if res.Limited {
		l.logger.WithFields(logrus.Fields{
			"module":      "ratelimit",
			"bucket":      p.Bucket,
			"key":         p.Key,
			"count":       res.Count,
			"max":         p.Max,
			"retry_after": res.RetryAfterSec,
		}).Warnf("ratelimit: limit exceeded [key: %s]", p.NamespacedKey())
	}
	return res, nil
}

// Close repassa para o store decorado quando ele tiver Close.
func (l *LoggingCounterStore) Close() error {
	if c, ok := l.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
