package infra

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"coach-gateway/middleware/ratelimit/domain"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const multiExecPath = "/multi-exec"

// RESTCounterStore usa um Redis exposto via REST (endpoint + bearer token).
//
// Cada Consume é um único POST transacional com INCR, PEXPIRE NX e PTTL,
// então a atomicidade fica a cargo do servidor e não há lock no cliente.
type RESTCounterStore struct {
	client  *resty.Client
	timeout time.Duration
}

type RESTOption func(*RESTCounterStore)

// WithRESTTimeout define o timeout de cada requisição ao backend.
func WithRESTTimeout(d time.Duration) RESTOption {
	return func(s *RESTCounterStore) { s.timeout = d }
}

func NewRESTCounterStore(endpoint, token string, opts ...RESTOption) (*RESTCounterStore, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	token = strings.TrimSpace(token)
	if endpoint == "" {
		return nil, errors.New("rest counter store: endpoint is required")
	}
	if token == "" {
		return nil, errors.New("rest counter store: token is required")
	}

	s := &RESTCounterStore{timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	s.client = resty.New().
		SetBaseURL(endpoint).
		SetTimeout(s.timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")

	return s, nil
}

func (s *RESTCounterStore) Timeout() time.Duration { return s.timeout }

// Consume implementa domain.CounterStore.
func (s *RESTCounterStore) Consume(ctx context.Context, p domain.ConsumeParams) (domain.ConsumeResult, error) {
	if err := p.Validate(); err != nil {
		return domain.ConsumeResult{}, err
	}

	now := time.Now()
	key := p.NamespacedKey()
	windowMs := max(p.Window.Milliseconds(), 1)

	batch := [][]string{
		{"INCR", key},
		{"PEXPIRE", key, strconv.FormatInt(windowMs, 10), "NX"},
		{"PTTL", key},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(batch).
		Post(multiExecPath)
	if err != nil {
		return domain.ConsumeResult{}, domain.NewStoreUnavailableError("rest multi-exec", err)
	}
	if !resp.IsSuccess() {
		return domain.ConsumeResult{}, domain.NewStoreUnavailableError(
			fmt.Sprintf("rest multi-exec returned status %d", resp.StatusCode()), nil)
	}

	count, ttl, err := parseMultiExec(resp.Body(), p.Window)
	if err != nil {
		return domain.ConsumeResult{}, err
	}
	return domain.NewConsumeResult(count, p.Max, now, ttl), nil
}

// parseMultiExec lê [{"result":..},{"result":..},{"result":..}].
// O PTTL pode vir ausente ou <= 0 no primeiro incremento da janela; nesse caso
// vale a janela inteira.
func parseMultiExec(body []byte, window time.Duration) (int64, time.Duration, error) {
	if !gjson.ValidBytes(body) {
		return 0, 0, domain.NewInvalidStoreResponseError("payload is not valid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return 0, 0, domain.NewInvalidStoreResponseError("payload is not an array")
	}

	items := root.Array()
	if len(items) < 3 {
		return 0, 0, domain.NewInvalidStoreResponseError(fmt.Sprintf("expected 3 results, got %d", len(items)))
	}
	for i, it := range items {
		if e := it.Get("error"); e.Exists() && e.String() != "" {
			return 0, 0, domain.NewInvalidStoreResponseError(fmt.Sprintf("command %d failed: %s", i, e.String()))
		}
	}

	count, ok := parseInteger(items[0].Get("result"))
	if !ok || count < 1 {
		return 0, 0, domain.NewInvalidStoreResponseError(
			fmt.Sprintf("incr result is not a positive integer: %s", items[0].Get("result").Raw))
	}

	ttl := window
	if ms, ok := parseInteger(items[2].Get("result")); ok && ms > 0 {
		ttl = time.Duration(ms) * time.Millisecond
	}
	return count, ttl, nil
}

// parseInteger aceita número JSON ou string numérica (truncado).
func parseInteger(r gjson.Result) (int64, bool) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}
