package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLimitExceeded é o único erro visível ao cliente (HTTP 429).
	ErrLimitExceeded = errors.New("rate limit exceeded")

	// ErrStoreUnavailable cobre falha de transporte, timeout e status não-2xx.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")

	// ErrInvalidStoreResponse é um payload malformado/parcial do backend remoto.
	// É tratado igual a ErrStoreUnavailable.
	ErrInvalidStoreResponse = errors.New("rate limit store response is invalid")

	ErrInvalidParams = errors.New("invalid consume params")
	ErrInvalidPolicy = errors.New("invalid rate limit policy")
)

// invalidResponseError casa com ErrInvalidStoreResponse e ErrStoreUnavailable.
type invalidResponseError struct {
	reason string
}

func (e *invalidResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidStoreResponse, e.reason)
}

func (e *invalidResponseError) Is(target error) bool {
	return target == ErrInvalidStoreResponse || target == ErrStoreUnavailable
}

func NewStoreUnavailableError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func NewInvalidStoreResponseError(reason string) error {
	return &invalidResponseError{reason: reason}
}

func NewInvalidParamsError(field string, value any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidParams, field, value)
}

func NewInvalidPolicyError(bucket, reason string) error {
	return fmt.Errorf("%w: bucket %q: %s", ErrInvalidPolicy, bucket, reason)
}

// IsStoreFailure indica que o erro deve virar fail-open no gate.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
