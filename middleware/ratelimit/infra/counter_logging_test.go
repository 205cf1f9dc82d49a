package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	res domain.ConsumeResult
	err error
}

func (s stubStore) Consume(context.Context, domain.ConsumeParams) (domain.ConsumeResult, error) {
	return s.res, s.err
}

func TestLoggingCounterStore_LogsFailuresAtError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cause := domain.NewStoreUnavailableError("rest multi-exec", errors.New("connection reset"))
	s := NewLoggingCounterStore(stubStore{err: cause}, logger)

	_, err := s.Consume(context.Background(), restParams)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "rl:auth", entry.Data["bucket"])
	assert.Equal(t, "1.2.3.4", entry.Data["key"])
}

func TestLoggingCounterStore_LogsLimitedAtWarn(t *testing.T) {
	logger, hook := test.NewNullLogger()
	res := domain.NewConsumeResult(21, 20, time.Now(), time.Minute)
	s := NewLoggingCounterStore(stubStore{res: res}, logger)

	got, err := s.Consume(context.Background(), restParams)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, int64(21), hook.LastEntry().Data["count"])
}

func TestLoggingCounterStore_SilentWhenAllowed(t *testing.T) {
	logger, hook := test.NewNullLogger()
	res := domain.NewConsumeResult(1, 20, time.Now(), time.Minute)
	s := NewLoggingCounterStore(stubStore{res: res}, logger)

	_, err := s.Consume(context.Background(), restParams)
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}

func TestLoggingCounterStore_ClosePropagates(t *testing.T) {
	mem := NewMemoryCounterStore(WithSweepEvery(time.Millisecond))
	s := NewLoggingCounterStore(mem, nil)
	require.NoError(t, s.Close())

	// janitor já parou; Close de novo não bloqueia
	require.NoError(t, mem.Close())
	assert.NoError(t, NewLoggingCounterStore(stubStore{}, nil).Close())
}
