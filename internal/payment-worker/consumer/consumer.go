// Package consumer aplica na carteira os pagamentos confirmados pelo gateway (tópico payment_completed).
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/shared/kafka"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/pkg/contracts/events"
)

const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// MessageReader é o lado de consumo do *kafka.Reader (commit manual)
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Funds aplica os movimentos (funds.Service)
type Funds interface {
	Deposit(ctx context.Context, ownerID string, amountCents int64, externalRef, method string) (model.Transaction, error)
	Withdraw(ctx context.Context, ownerID string, amountCents int64, externalRef, method string) (model.Transaction, error)
}

// Processor consome payment_completed, aplica com retry limitado e manda para a DLQ o que não der.
// O offset só é confirmado depois que a mensagem foi aplicada ou encaminhada para a DLQ.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Funds  Funds
	DLQ    kafka.MessageWriter

	MaxTries        uint
	InitialInterval time.Duration

	OnConsumed func()                    // métricas
	OnApplied  func(kind, result string) // métricas: applied | duplicate | dead_letter
	OnError    func(stage string)        // métricas por fase
}

// Run inicia o loop principal; retorna quando o contexto é cancelado ou a DLQ/commit falha
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.handle(ctx, m); err != nil {
			return err
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.fail("commit")
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

// handle só retorna erro quando não conseguiu nem aplicar nem encaminhar para a DLQ
func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	var ev events.PaymentCompleted
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid payment message", zap.Int64("offset", m.Offset), zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m, "decode", err, 0, "")
	}

	if err := validate(ev); err != nil {
		p.Log.Warn("payment rejected", zap.String("tx_ref", ev.TxRef), zap.Error(err))
		p.fail("validate")
		return p.deadLetter(ctx, m, "validate", err, 0, ev.Kind)
	}

	attempts, err := p.apply(ctx, ev)
	switch {
	case err == nil:
		p.applied(ev.Kind, "applied")
		p.Log.Info("payment applied",
			zap.String("tx_ref", ev.TxRef), zap.String("user_id", ev.UserID),
			zap.String("kind", ev.Kind), zap.Int64("amount_cents", ev.AmountCents))
		return nil
	case errors.Is(err, model.ErrDuplicate):
		p.applied(ev.Kind, "duplicate")
		p.Log.Info("payment already applied", zap.String("tx_ref", ev.TxRef))
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		p.Log.Error("payment could not be applied",
			zap.String("tx_ref", ev.TxRef), zap.Uint("attempts", attempts), zap.Error(err))
		p.fail("apply")
		return p.deadLetter(ctx, m, "apply", err, attempts, ev.Kind)
	}
}

func validate(ev events.PaymentCompleted) error {
	if ev.TxRef == "" || ev.UserID == "" {
		return errors.New("tx_ref and user_id are required")
	}
	if ev.AmountCents <= 0 {
		return model.ErrInvalidAmount
	}
	if ev.Kind != KindDeposit && ev.Kind != KindWithdrawal {
		return fmt.Errorf("unknown payment kind %q", ev.Kind)
	}
	return nil
}

// apply repete apenas falhas transitórias (banco indisponível, conflito); regra de negócio vai direto para a DLQ
func (p *Processor) apply(ctx context.Context, ev events.PaymentCompleted) (uint, error) {
	maxTries := p.MaxTries
	if maxTries == 0 {
		maxTries = 5
	}
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}

	var attempts uint
	_, err := backoff.Retry(ctx, func() (model.Transaction, error) {
		attempts++
		var t model.Transaction
		var err error
		if ev.Kind == KindDeposit {
			t, err = p.Funds.Deposit(ctx, ev.UserID, ev.AmountCents, ev.TxRef, ev.Method)
		} else {
			t, err = p.Funds.Withdraw(ctx, ev.UserID, ev.AmountCents, ev.TxRef, ev.Method)
		}
		if err == nil {
			return t, nil
		}
		if errors.Is(err, model.ErrDuplicate) || model.IsValidation(err) {
			return t, backoff.Permanent(err)
		}
		return t, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(maxTries),
	)
	return attempts, err
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, stage string, cause error, attempts uint, kind string) error {
	dl := events.DeadLetter{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       string(m.Key),
		Payload:   string(m.Value),
		Stage:     stage,
		Error:     cause.Error(),
		Attempts:  attempts,
		Ts:        time.Now().UTC(),
	}
	if err := kafka.WriteJSON(ctx, p.DLQ, string(m.Key), dl); err != nil {
		p.fail("dlq")
		return fmt.Errorf("dead letter offset %d: %w", m.Offset, err)
	}
	if kind == "" {
		kind = "unknown"
	}
	p.applied(kind, "dead_letter")
	return nil
}

func (p *Processor) applied(kind, result string) {
	if p.OnApplied != nil {
		p.OnApplied(kind, result)
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
