package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// RetryPolicy controla o retry de conflitos de concorrência (backoff exponencial limitado)
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration

	OnRetry func(attempt uint, err error) // métricas
}

// DefaultRetryPolicy é usada quando nenhuma política é configurada
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialInterval: 10 * time.Millisecond, MaxInterval: 250 * time.Millisecond}
}

// RunWithRetry executa fn numa transação e repete apenas em model.ErrConcurrencyConflict.
// Esgotadas as tentativas, o conflito é devolvido ao chamador como falha transitória.
func RunWithRetry(ctx context.Context, s Store, p RetryPolicy, fn TxFunc) error {
	if p.MaxAttempts == 0 {
		p = DefaultRetryPolicy()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval

	var attempt uint
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.RunInTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !errors.Is(err, model.ErrConcurrencyConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		if p.OnRetry != nil && attempt < p.MaxAttempts {
			p.OnRetry(attempt, err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
	)
	if err != nil && errors.Is(err, model.ErrConcurrencyConflict) {
		return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
	}
	return err
}
