// Package ledger é o registro append-only de todo evento que altera saldo.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

// ErrUnbalancedPair indica um par débito/crédito que não se anula ou não compartilha a transferência
var ErrUnbalancedPair = errors.New("unbalanced ledger pair")

type Ledger struct {
	st  store.Store
	now func() time.Time
}

func New(st store.Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{st: st, now: now}
}

// AppendInTx grava a entrada na transação do chamador, preenchendo id e createdAt
func (l *Ledger) AppendInTx(ctx context.Context, tx store.Tx, t model.Transaction) (model.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now()
	}
	if t.ID == "" {
		t.ID = model.NewSortableID(t.CreatedAt)
	}
	if t.Status == "" {
		t.Status = model.TxCompleted
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return model.Transaction{}, fmt.Errorf("append %s for %s: %w", t.Kind, t.OwnerID, err)
	}
	return t, nil
}

// AppendPairInTx grava débito e crédito de uma transferência (ambos ou nenhum)
func (l *Ledger) AppendPairInTx(ctx context.Context, tx store.Tx, debit, credit model.Transaction) (model.Transaction, model.Transaction, error) {
	if err := validatePair(debit, credit); err != nil {
		return model.Transaction{}, model.Transaction{}, err
	}

	at := l.now()
	debit.CreatedAt, credit.CreatedAt = at, at

	d, err := l.AppendInTx(ctx, tx, debit)
	if err != nil {
		return model.Transaction{}, model.Transaction{}, err
	}
	c, err := l.AppendInTx(ctx, tx, credit)
	if err != nil {
		return model.Transaction{}, model.Transaction{}, err
	}
	return d, c, nil
}

func (l *Ledger) Append(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	var out model.Transaction
	err := l.st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = l.AppendInTx(ctx, tx, t)
		return err
	})
	return out, err
}

func (l *Ledger) AppendPair(ctx context.Context, debit, credit model.Transaction) (model.Transaction, model.Transaction, error) {
	var d, c model.Transaction
	err := l.st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		d, c, err = l.AppendPairInTx(ctx, tx, debit, credit)
		return err
	})
	return d, c, err
}

// Query lista as entradas do dono, mais novas primeiro; before continua de onde a página anterior parou
func (l *Ledger) Query(ctx context.Context, ownerID string, limit int, before *store.Cursor) ([]model.Transaction, error) {
	return l.st.ListTransactions(ctx, ownerID, store.ClampLimit(limit), before)
}

// ByTransfer retorna as entradas ligadas a uma transferência
func (l *Ledger) ByTransfer(ctx context.Context, transferID string) ([]model.Transaction, error) {
	return l.st.ListTransactionsByTransfer(ctx, transferID)
}

func validatePair(debit, credit model.Transaction) error {
	switch {
	case debit.RelatedTransferID == "" || debit.RelatedTransferID != credit.RelatedTransferID:
		return fmt.Errorf("%w: related transfer mismatch", ErrUnbalancedPair)
	case debit.AmountCents >= 0 || debit.AmountCents != -credit.AmountCents:
		return fmt.Errorf("%w: %d / %d", ErrUnbalancedPair, debit.AmountCents, credit.AmountCents)
	case debit.Currency != credit.Currency:
		return fmt.Errorf("%w: currency %s / %s", ErrUnbalancedPair, debit.Currency, credit.Currency)
	}
	return nil
}
