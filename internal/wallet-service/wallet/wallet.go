// Package wallet concentra toda mutação de saldo e do estado de segurança/limites das carteiras.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

// Constraints ajustam as regras aplicadas numa atualização de saldo
type Constraints struct {
	// DailyLimited contabiliza débitos no limite diário de transferências
	DailyLimited bool
	// IgnoreLock só é usado para depósitos já liquidados no gateway
	IgnoreLock bool
}

// Notifier recebe o estado da carteira após cada commit (broadcast em tempo real)
type Notifier interface {
	WalletChanged(ctx context.Context, w model.Wallet)
}

type Options struct {
	Limits   model.Limits
	Location *time.Location
	Now      func() time.Time
	Retry    store.RetryPolicy
	Notifier Notifier
}

type Store struct {
	st    store.Store
	audit *audit.Log
	log   *zap.Logger
	opts  Options
}

func New(st store.Store, auditLog *audit.Log, log *zap.Logger, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Store{st: st, audit: auditLog, log: log, opts: opts}
}

// Today é a chave do dia corrente no fuso configurado
func (s *Store) Today() string {
	return model.DayKey(s.opts.Now(), s.opts.Location)
}

func (s *Store) Retry() store.RetryPolicy { return s.opts.Retry }

// GetOrCreateInTx lê e bloqueia a carteira, criando com os defaults se não existir
func (s *Store) GetOrCreateInTx(ctx context.Context, tx store.Tx, ownerID string) (model.Wallet, error) {
	w, err := tx.GetWallet(ctx, ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, model.ErrWalletNotFound) {
		return model.Wallet{}, err
	}

	w = model.NewWallet(ownerID, s.opts.Limits, s.opts.Now())
	if err := tx.InsertWallet(ctx, w); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			// criada por outra transação entre a leitura e o insert
			return tx.GetWallet(ctx, ownerID)
		}
		return model.Wallet{}, fmt.Errorf("create wallet %s: %w", ownerID, err)
	}
	if _, err := s.audit.Record(ctx, tx, ownerID, model.ActionWalletCreated, "wallet created with default limits", model.RiskLow); err != nil {
		return model.Wallet{}, err
	}
	return tx.GetWallet(ctx, ownerID)
}

func (s *Store) GetOrCreate(ctx context.Context, ownerID string) (model.Wallet, error) {
	if ownerID == "" {
		return model.Wallet{}, model.ErrWalletNotFound
	}
	if w, err := s.st.ReadWallet(ctx, ownerID); err == nil {
		return w, nil
	} else if !errors.Is(err, model.ErrWalletNotFound) {
		return model.Wallet{}, err
	}

	var w model.Wallet
	err := store.RunWithRetry(ctx, s.st, s.opts.Retry, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = s.GetOrCreateInTx(ctx, tx, ownerID)
		return err
	})
	return w, err
}

// UpdateInTx aplica delta ao saldo respeitando bloqueio, status, não-negatividade e limite diário.
// Em qualquer falha a carteira não é alterada.
func (s *Store) UpdateInTx(ctx context.Context, tx store.Tx, ownerID string, delta int64, c Constraints) (model.Wallet, error) {
	w, err := s.GetOrCreateInTx(ctx, tx, ownerID)
	if err != nil {
		return model.Wallet{}, err
	}
	if err := s.apply(&w, delta, c); err != nil {
		return model.Wallet{}, err
	}
	if err := s.save(ctx, tx, &w); err != nil {
		return model.Wallet{}, err
	}
	return w, nil
}

// DualUpdateInTx debita from e credita to no mesmo commit.
// As linhas são bloqueadas em ordem de ownerID para evitar deadlock entre transferências cruzadas.
func (s *Store) DualUpdateInTx(ctx context.Context, tx store.Tx, fromID, toID string, amount int64, c Constraints) (model.Wallet, model.Wallet, error) {
	if amount <= 0 {
		return model.Wallet{}, model.Wallet{}, model.ErrInvalidAmount
	}
	if fromID == toID || toID == "" {
		return model.Wallet{}, model.Wallet{}, model.ErrInvalidRecipient
	}

	ids := []string{fromID, toID}
	sort.Strings(ids)
	locked := make(map[string]model.Wallet, 2)
	for _, id := range ids {
		w, err := s.GetOrCreateInTx(ctx, tx, id)
		if err != nil {
			return model.Wallet{}, model.Wallet{}, err
		}
		locked[id] = w
	}

	from, to := locked[fromID], locked[toID]
	if from.Currency != to.Currency {
		return model.Wallet{}, model.Wallet{}, fmt.Errorf("%w: currency %s -> %s", model.ErrInvalidRecipient, from.Currency, to.Currency)
	}
	if err := s.apply(&from, -amount, c); err != nil {
		return model.Wallet{}, model.Wallet{}, err
	}
	// o recebedor nunca consome limite diário
	if err := s.apply(&to, amount, Constraints{}); err != nil {
		return model.Wallet{}, model.Wallet{}, fmt.Errorf("recipient %s: %w", toID, err)
	}

	if err := s.save(ctx, tx, &from); err != nil {
		return model.Wallet{}, model.Wallet{}, err
	}
	if err := s.save(ctx, tx, &to); err != nil {
		return model.Wallet{}, model.Wallet{}, err
	}
	return from, to, nil
}

func (s *Store) AtomicUpdate(ctx context.Context, ownerID string, delta int64, c Constraints) (model.Wallet, error) {
	var w model.Wallet
	err := store.RunWithRetry(ctx, s.st, s.opts.Retry, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = s.UpdateInTx(ctx, tx, ownerID, delta, c)
		return err
	})
	return w, err
}

func (s *Store) AtomicDualUpdate(ctx context.Context, fromID, toID string, amount int64, c Constraints) (model.Wallet, model.Wallet, error) {
	var from, to model.Wallet
	err := store.RunWithRetry(ctx, s.st, s.opts.Retry, func(ctx context.Context, tx store.Tx) error {
		var err error
		from, to, err = s.DualUpdateInTx(ctx, tx, fromID, toID, amount, c)
		return err
	})
	return from, to, err
}

// CheckDebit aplica as mesmas regras de UpdateInTx sem gravar nada.
// Retorna a carteira com o rollover diário já aplicado.
func (s *Store) CheckDebit(w model.Wallet, amount int64, c Constraints) (model.Wallet, error) {
	err := s.apply(&w, -amount, c)
	return w, err
}

// apply valida e altera a cópia em memória; ordem das checagens: bloqueio, status, saldo, limite diário
func (s *Store) apply(w *model.Wallet, delta int64, c Constraints) error {
	if w.IsLocked && !c.IgnoreLock {
		return fmt.Errorf("%w: %s", model.ErrWalletLocked, w.LockReason)
	}
	if w.Status != model.WalletActive {
		return fmt.Errorf("%w: %s", model.ErrWalletInactive, w.Status)
	}
	if w.BalanceCents+delta < 0 {
		return model.ErrInsufficientBalance
	}

	if c.DailyLimited && delta < 0 {
		day := s.Today()
		used := w.DailyUsedOn(day)
		if used-delta > w.DailyLimitCents {
			return fmt.Errorf("%w: used %d of %d", model.ErrDailyLimitExceeded, used, w.DailyLimitCents)
		}
		w.DailyUsedCents = used - delta
		w.LastTransferDate = day
	}

	w.BalanceCents += delta
	return nil
}

func (s *Store) save(ctx context.Context, tx store.Tx, w *model.Wallet) error {
	w.Version++
	w.UpdatedAt = s.opts.Now()
	if err := tx.UpdateWallet(ctx, *w); err != nil {
		return fmt.Errorf("update wallet %s: %w", w.OwnerID, err)
	}
	if s.opts.Notifier != nil {
		snapshot := *w
		tx.AfterCommit(func() {
			s.opts.Notifier.WalletChanged(context.WithoutCancel(ctx), snapshot)
		})
	}
	return nil
}
