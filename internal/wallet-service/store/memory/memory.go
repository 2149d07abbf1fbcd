// Package memory é um motor transacional em memória usado em testes e no modo local.
// Transações são serializadas por um mutex global; escritas ficam em staging até o commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

type refKey struct {
	owner string
	kind  model.TransactionKind
	ref   string
}

type inviteKey struct {
	inviter string
	invitee string
}

// Store implementa store.Store sobre mapas protegidos por mutex
type Store struct {
	mu sync.Mutex

	wallets      map[string]model.Wallet
	transactions []model.Transaction
	refs         map[refKey]string
	transfers    map[string]model.TransferRequest
	securityLogs []model.SecurityLogEntry
	invitations  map[inviteKey]time.Time
	counters     map[string]model.InvitationCounter

	conflicts int   // próximos N commits falham com conflito
	failWith  error // próximo RunInTx falha com este erro
}

func New() *Store {
	return &Store{
		wallets:     map[string]model.Wallet{},
		refs:        map[refKey]string{},
		transfers:   map[string]model.TransferRequest{},
		invitations: map[inviteKey]time.Time{},
		counters:    map[string]model.InvitationCounter{},
	}
}

// InjectConflicts faz os próximos n commits falharem com model.ErrConcurrencyConflict
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	s.conflicts = n
	s.mu.Unlock()
}

// FailNext faz o próximo RunInTx falhar com err sem aplicar nada
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.commit(ctx, fn)
	if err != nil {
		return err
	}
	for _, f := range tx.after {
		f()
	}
	return nil
}

// commit roda fn sob o mutex; o unlock é adiado para que um panic em fn não trave o store
func (s *Store) commit(ctx context.Context, fn store.TxFunc) (*tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		err := s.failWith
		s.failWith = nil
		return nil, err
	}

	tx := &tx{
		s:         s,
		wallets:   map[string]model.Wallet{},
		transfers: map[string]model.TransferRequest{},
		refs:      map[refKey]string{},
		invites:   map[inviteKey]time.Time{},
		counters:  map[string]model.InvitationCounter{},
	}
	if err := fn(ctx, tx); err != nil {
		return nil, err
	}

	if s.conflicts > 0 {
		s.conflicts--
		return nil, model.ErrConcurrencyConflict
	}

	tx.apply()
	return tx, nil
}

func (s *Store) ReadWallet(_ context.Context, ownerID string) (model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[ownerID]
	if !ok {
		return model.Wallet{}, model.ErrWalletNotFound
	}
	return w, nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID string, limit int, before *store.Cursor) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, t := range s.transactions {
		if t.OwnerID != ownerID {
			continue
		}
		if before != nil && !olderThan(t.CreatedAt, t.ID, *before) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return truncate(out, limit), nil
}

func (s *Store) ListTransactionsByTransfer(_ context.Context, transferID string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, t := range s.transactions {
		if t.RelatedTransferID == transferID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) ListSecurityLogs(_ context.Context, ownerID string, limit int, before *store.Cursor) ([]model.SecurityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.SecurityLogEntry
	for _, e := range s.securityLogs {
		if ownerID != "" && e.OwnerID != ownerID {
			continue
		}
		if before != nil && !olderThan(e.Timestamp, e.ID, *before) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].Timestamp, out[i].ID, out[j].Timestamp, out[j].ID)
	})
	return truncate(out, limit), nil
}

func (s *Store) ListTransfers(_ context.Context, f store.TransferFilter) ([]model.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.TransferRequest
	for _, t := range s.transfers {
		if f.FromOwnerID != "" && t.FromOwnerID != f.FromOwnerID {
			continue
		}
		if f.ToOwnerID != "" && t.ToOwnerID != f.ToOwnerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return truncate(out, f.Limit), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func newer(at time.Time, id string, than time.Time, thanID string) bool {
	if !at.Equal(than) {
		return at.After(than)
	}
	return id > thanID
}

func olderThan(at time.Time, id string, c store.Cursor) bool {
	return newer(c.CreatedAt, c.ID, at, id)
}

func truncate[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
