package memory

import (
	"context"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// tx acumula escritas; leituras consultam o staging antes do estado commitado
type tx struct {
	s *Store

	wallets      map[string]model.Wallet
	transactions []model.Transaction
	refs         map[refKey]string
	transfers    map[string]model.TransferRequest
	securityLogs []model.SecurityLogEntry
	invites      map[inviteKey]time.Time
	counters     map[string]model.InvitationCounter

	after []func()
}

func (t *tx) GetWallet(_ context.Context, ownerID string) (model.Wallet, error) {
	if w, ok := t.wallets[ownerID]; ok {
		return w, nil
	}
	if w, ok := t.s.wallets[ownerID]; ok {
		return w, nil
	}
	return model.Wallet{}, model.ErrWalletNotFound
}

func (t *tx) InsertWallet(ctx context.Context, w model.Wallet) error {
	if _, err := t.GetWallet(ctx, w.OwnerID); err == nil {
		return model.ErrDuplicate
	}
	t.wallets[w.OwnerID] = w
	return nil
}

func (t *tx) UpdateWallet(ctx context.Context, w model.Wallet) error {
	if _, err := t.GetWallet(ctx, w.OwnerID); err != nil {
		return err
	}
	t.wallets[w.OwnerID] = w
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, tr model.Transaction) error {
	if tr.ExternalRef != "" {
		k := refKey{owner: tr.OwnerID, kind: tr.Kind, ref: tr.ExternalRef}
		if _, ok := t.refs[k]; ok {
			return model.ErrDuplicate
		}
		if _, ok := t.s.refs[k]; ok {
			return model.ErrDuplicate
		}
		t.refs[k] = tr.ID
	}
	t.transactions = append(t.transactions, tr)
	return nil
}

func (t *tx) FindTransactionByRef(_ context.Context, ownerID string, kind model.TransactionKind, ref string) (model.Transaction, bool, error) {
	k := refKey{owner: ownerID, kind: kind, ref: ref}
	id, ok := t.refs[k]
	if !ok {
		id, ok = t.s.refs[k]
	}
	if !ok {
		return model.Transaction{}, false, nil
	}
	for _, tr := range t.transactions {
		if tr.ID == id {
			return tr, true, nil
		}
	}
	for _, tr := range t.s.transactions {
		if tr.ID == id {
			return tr, true, nil
		}
	}
	return model.Transaction{}, false, nil
}

func (t *tx) GetTransfer(_ context.Context, id string) (model.TransferRequest, error) {
	if tr, ok := t.transfers[id]; ok {
		return tr, nil
	}
	if tr, ok := t.s.transfers[id]; ok {
		return tr, nil
	}
	return model.TransferRequest{}, model.ErrTransferNotFound
}

func (t *tx) InsertTransfer(ctx context.Context, tr model.TransferRequest) error {
	if _, err := t.GetTransfer(ctx, tr.ID); err == nil {
		return model.ErrDuplicate
	}
	t.transfers[tr.ID] = tr
	return nil
}

func (t *tx) UpdateTransfer(ctx context.Context, tr model.TransferRequest) error {
	if _, err := t.GetTransfer(ctx, tr.ID); err != nil {
		return err
	}
	t.transfers[tr.ID] = tr
	return nil
}

func (t *tx) InsertSecurityLog(_ context.Context, e model.SecurityLogEntry) error {
	t.securityLogs = append(t.securityLogs, e)
	return nil
}

func (t *tx) InsertInvitation(_ context.Context, inviterID, inviteeID string, at time.Time) error {
	k := inviteKey{inviter: inviterID, invitee: inviteeID}
	if _, ok := t.invites[k]; ok {
		return model.ErrDuplicate
	}
	if _, ok := t.s.invitations[k]; ok {
		return model.ErrDuplicate
	}
	t.invites[k] = at
	return nil
}

func (t *tx) GetInvitationCounter(_ context.Context, inviterID string) (model.InvitationCounter, error) {
	if c, ok := t.counters[inviterID]; ok {
		return c, nil
	}
	if c, ok := t.s.counters[inviterID]; ok {
		return c, nil
	}
	return model.InvitationCounter{InviterID: inviterID}, nil
}

func (t *tx) SaveInvitationCounter(_ context.Context, c model.InvitationCounter) error {
	t.counters[c.InviterID] = c
	return nil
}

func (t *tx) AfterCommit(fn func()) {
	t.after = append(t.after, fn)
}

// apply publica o staging no estado do Store; chamado com o mutex do Store em posse
func (t *tx) apply() {
	for k, w := range t.wallets {
		t.s.wallets[k] = w
	}
	t.s.transactions = append(t.s.transactions, t.transactions...)
	for k, v := range t.refs {
		t.s.refs[k] = v
	}
	for k, tr := range t.transfers {
		t.s.transfers[k] = tr
	}
	t.s.securityLogs = append(t.s.securityLogs, t.securityLogs...)
	for k, v := range t.invites {
		t.s.invitations[k] = v
	}
	for k, c := range t.counters {
		t.s.counters[k] = c
	}
}
