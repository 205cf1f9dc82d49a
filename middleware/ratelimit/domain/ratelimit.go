package domain

// Camada de domínio do rate limit por janela fixa.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"math"
	"strings"
	"time"
)

// ConsumeParams é a entrada de uma operação de consumo. Vem da configuração
// da rota protegida e nunca é persistida.
type ConsumeParams struct {
	Bucket string
	Key    string
	Window time.Duration
	Max    int
}

// NamespacedKey compõe a chave "bucket:key" usada no backend.
func (p ConsumeParams) NamespacedKey() string {
	return p.Bucket + ":" + p.Key
}

func (p ConsumeParams) Validate() error {
	if strings.TrimSpace(p.Bucket) == "" {
		return NewInvalidParamsError("bucket", p.Bucket)
	}
	if p.Window <= 0 {
		return NewInvalidParamsError("window", p.Window)
	}
	if p.Max <= 0 {
		return NewInvalidParamsError("max", p.Max)
	}
	return nil
}

// ConsumeResult é derivado de cada consumo; não é armazenado.
type ConsumeResult struct {
	Count         int64
	Remaining     int
	ResetAt       time.Time
	RetryAfterSec int
	Limited       bool
}

// NewConsumeResult monta o resultado a partir da contagem pós-incremento e do
// tempo restante da janela (ttl).
//
//   - Remaining = max(0, max-count)
//   - Limited = count > max (a requisição de número max ainda passa)
//   - RetryAfterSec = max(1, ceil(ttl em segundos))
func NewConsumeResult(count int64, max int, now time.Time, ttl time.Duration) ConsumeResult {
	remaining := int64(max) - count
	if remaining < 0 {
		remaining = 0
	}

	retry := int(math.Ceil(ttl.Seconds()))
	if retry < 1 {
		retry = 1
	}

	return ConsumeResult{
		Count:         count,
		Remaining:     int(remaining),
		ResetAt:       now.Add(ttl),
		RetryAfterSec: retry,
		Limited:       count > int64(max),
	}
}

// CounterStore é o backend plugável de contadores chave → (count, resetAt).
//
// Consume precisa ser seguro para chamadas concorrentes na mesma chave
// (nenhum incremento perdido).
type CounterStore interface {
	Consume(ctx context.Context, p ConsumeParams) (ConsumeResult, error)
}

// Policy é a configuração estática de uma rota protegida.
type Policy struct {
	Bucket  string
	Window  time.Duration
	Max     int
	Message string
}

func (p Policy) Validate() error {
	if strings.TrimSpace(p.Bucket) == "" {
		return NewInvalidPolicyError(p.Bucket, "bucket is empty")
	}
	if p.Window <= 0 {
		return NewInvalidPolicyError(p.Bucket, "window must be > 0")
	}
	if p.Max <= 0 {
		return NewInvalidPolicyError(p.Bucket, "max must be > 0")
	}
	return nil
}

// Params monta os parâmetros de consumo para uma chave de cliente.
func (p Policy) Params(key string) ConsumeParams {
	return ConsumeParams{
		Bucket: p.Bucket,
		Key:    key,
		Window: p.Window,
		Max:    p.Max,
	}
}

type Decision struct {
	Allowed bool
	// HasResult indica que o store respondeu e Result pode virar headers.
	// Em fail-open fica false.
	HasResult bool
	Result    ConsumeResult
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	// Err é ErrLimitExceeded quando bloqueou, ou o erro do store quando a
	// decisão foi fail-open.
	Err error
	// StoreDown marca fail-open por falha do backend (ErrStoreUnavailable).
	StoreDown bool
}

// FailedOpen indica que a requisição passou porque o Consume devolveu erro.
func (d Decision) FailedOpen() bool { return d.Allowed && d.Err != nil }
