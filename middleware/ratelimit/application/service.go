package application

import (
	"context"
	"time"

	"coach-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Qualquer erro do store vira fail-open: a requisição passa e o erro segue
// na Decision. StoreDown separa falha de backend (esperada) de erro de uso.
type Service struct {
	Store domain.CounterStore
}

func (s Service) Decide(ctx context.Context, policy domain.Policy, key string) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	res, err := s.Store.Consume(ctx, policy.Params(key))
	if err != nil {
		return domain.Decision{Allowed: true, Err: err, StoreDown: domain.IsStoreFailure(err)}
	}

	if res.Limited {
		return domain.Decision{
			Allowed:    false,
			HasResult:  true,
			Result:     res,
			RetryAfter: time.Duration(res.RetryAfterSec) * time.Second,
			Err:        domain.ErrLimitExceeded,
		}
	}
	return domain.Decision{Allowed: true, HasResult: true, Result: res}
}
