package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

const selectWallet = `SELECT owner_id, balance_cents, currency, status, is_locked, lock_reason, security_level,
	daily_limit_cents, daily_used_cents, last_transfer_date, transfer_limit_cents, device_fingerprint,
	suspicious_activity_count, version, created_at, updated_at FROM wallets`

const selectTransaction = `SELECT id, owner_id, kind, amount_cents, currency, status, description,
	related_transfer_id, external_ref, balance_after_cents, created_at FROM wallet_transactions`

const selectTransfer = `SELECT id, from_owner_id, to_owner_id, amount_cents, reason, fraud_score, status,
	security_code, admin_notes, admin, created_at, updated_at FROM transfer_requests`

const selectSecurityLog = `SELECT id, owner_id, action, details, risk_level, ip_address, user_agent,
	location, device_fingerprint, created_at FROM wallet_security_logs`

type rowScanner interface {
	Scan(dest ...any) error
}

type tx struct {
	tx    *sql.Tx
	after []func()
}

func (t *tx) GetWallet(ctx context.Context, ownerID string) (model.Wallet, error) {
	w, err := scanWallet(t.tx.QueryRowContext(ctx, selectWallet+` WHERE owner_id=$1 FOR UPDATE`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Wallet{}, model.ErrWalletNotFound
	}
	return w, err
}

// InsertWallet usa ON CONFLICT para não abortar a transação quando outro request criou a carteira antes
func (t *tx) InsertWallet(ctx context.Context, w model.Wallet) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO wallets(owner_id, balance_cents, currency, status, is_locked, lock_reason,
		security_level, daily_limit_cents, daily_used_cents, last_transfer_date, transfer_limit_cents, device_fingerprint,
		suspicious_activity_count, version, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (owner_id) DO NOTHING`,
		w.OwnerID, w.BalanceCents, w.Currency, string(w.Status), w.IsLocked, w.LockReason,
		string(w.SecurityLevel), w.DailyLimitCents, w.DailyUsedCents, w.LastTransferDate, w.TransferLimitCents,
		w.DeviceFingerprint, w.SuspiciousActivityCount, w.Version, w.CreatedAt, w.UpdatedAt)
	return affectedOrDuplicate(res, err)
}

func (t *tx) UpdateWallet(ctx context.Context, w model.Wallet) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE wallets SET balance_cents=$2, currency=$3, status=$4, is_locked=$5,
		lock_reason=$6, security_level=$7, daily_limit_cents=$8, daily_used_cents=$9, last_transfer_date=$10,
		transfer_limit_cents=$11, device_fingerprint=$12, suspicious_activity_count=$13, version=$14, updated_at=$15
		WHERE owner_id=$1`,
		w.OwnerID, w.BalanceCents, w.Currency, string(w.Status), w.IsLocked, w.LockReason, string(w.SecurityLevel),
		w.DailyLimitCents, w.DailyUsedCents, w.LastTransferDate, w.TransferLimitCents, w.DeviceFingerprint,
		w.SuspiciousActivityCount, w.Version, w.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrWalletNotFound
	}
	return nil
}

func (t *tx) InsertTransaction(ctx context.Context, tr model.Transaction) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO wallet_transactions(id, owner_id, kind, amount_cents, currency, status,
		description, related_transfer_id, external_ref, balance_after_cents, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (owner_id, kind, external_ref) WHERE external_ref <> '' DO NOTHING`,
		tr.ID, tr.OwnerID, string(tr.Kind), tr.AmountCents, tr.Currency, string(tr.Status), tr.Description,
		tr.RelatedTransferID, tr.ExternalRef, tr.BalanceAfterCents, tr.CreatedAt)
	return affectedOrDuplicate(res, err)
}

func (t *tx) FindTransactionByRef(ctx context.Context, ownerID string, kind model.TransactionKind, ref string) (model.Transaction, bool, error) {
	tr, err := scanTransaction(t.tx.QueryRowContext(ctx,
		selectTransaction+` WHERE owner_id=$1 AND kind=$2 AND external_ref=$3`, ownerID, string(kind), ref))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, err
	}
	return tr, true, nil
}

func (t *tx) GetTransfer(ctx context.Context, id string) (model.TransferRequest, error) {
	tr, err := scanTransfer(t.tx.QueryRowContext(ctx, selectTransfer+` WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TransferRequest{}, model.ErrTransferNotFound
	}
	return tr, err
}

func (t *tx) InsertTransfer(ctx context.Context, tr model.TransferRequest) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO transfer_requests(id, from_owner_id, to_owner_id, amount_cents, reason,
		fraud_score, status, security_code, admin_notes, admin, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		tr.ID, tr.FromOwnerID, tr.ToOwnerID, tr.AmountCents, tr.Reason, tr.FraudScore, string(tr.Status),
		tr.SecurityCode, tr.AdminNotes, tr.Admin, tr.CreatedAt, tr.UpdatedAt)
	return err
}

func (t *tx) UpdateTransfer(ctx context.Context, tr model.TransferRequest) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE transfer_requests SET status=$2, admin_notes=$3, fraud_score=$4, updated_at=$5
		WHERE id=$1`, tr.ID, string(tr.Status), tr.AdminNotes, tr.FraudScore, tr.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrTransferNotFound
	}
	return nil
}

func (t *tx) InsertSecurityLog(ctx context.Context, e model.SecurityLogEntry) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO wallet_security_logs(id, owner_id, action, details, risk_level,
		ip_address, user_agent, location, device_fingerprint, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.OwnerID, e.Action, e.Details, string(e.RiskLevel), e.IPAddress, e.UserAgent, e.Location,
		e.DeviceFingerprint, e.Timestamp)
	return err
}

func (t *tx) InsertInvitation(ctx context.Context, inviterID, inviteeID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO invitations(inviter_id, invitee_id, created_at) VALUES($1,$2,$3)
		ON CONFLICT DO NOTHING`, inviterID, inviteeID, at)
	return affectedOrDuplicate(res, err)
}

func (t *tx) GetInvitationCounter(ctx context.Context, inviterID string) (model.InvitationCounter, error) {
	c := model.InvitationCounter{InviterID: inviterID}
	err := t.tx.QueryRowContext(ctx, `SELECT count, rewards_granted, updated_at FROM invitation_counters
		WHERE inviter_id=$1 FOR UPDATE`, inviterID).Scan(&c.Count, &c.RewardsGranted, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, nil
	}
	return c, err
}

func (t *tx) SaveInvitationCounter(ctx context.Context, c model.InvitationCounter) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO invitation_counters(inviter_id, count, rewards_granted, updated_at)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (inviter_id) DO UPDATE SET count=EXCLUDED.count, rewards_granted=EXCLUDED.rewards_granted,
		updated_at=EXCLUDED.updated_at`, c.InviterID, c.Count, c.RewardsGranted, c.UpdatedAt)
	return err
}

func (t *tx) AfterCommit(fn func()) {
	t.after = append(t.after, fn)
}

func affectedOrDuplicate(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrDuplicate
	}
	return nil
}

func scanWallet(r rowScanner) (model.Wallet, error) {
	var w model.Wallet
	var status, level string
	err := r.Scan(&w.OwnerID, &w.BalanceCents, &w.Currency, &status, &w.IsLocked, &w.LockReason, &level,
		&w.DailyLimitCents, &w.DailyUsedCents, &w.LastTransferDate, &w.TransferLimitCents, &w.DeviceFingerprint,
		&w.SuspiciousActivityCount, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	w.Status = model.WalletStatus(status)
	w.SecurityLevel = model.SecurityLevel(level)
	return w, err
}

func scanTransaction(r rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var kind, status string
	err := r.Scan(&t.ID, &t.OwnerID, &kind, &t.AmountCents, &t.Currency, &status, &t.Description,
		&t.RelatedTransferID, &t.ExternalRef, &t.BalanceAfterCents, &t.CreatedAt)
	t.Kind = model.TransactionKind(kind)
	t.Status = model.TransactionStatus(status)
	return t, err
}

func scanTransfer(r rowScanner) (model.TransferRequest, error) {
	var t model.TransferRequest
	var status string
	err := r.Scan(&t.ID, &t.FromOwnerID, &t.ToOwnerID, &t.AmountCents, &t.Reason, &t.FraudScore, &status,
		&t.SecurityCode, &t.AdminNotes, &t.Admin, &t.CreatedAt, &t.UpdatedAt)
	t.Status = model.TransferStatus(status)
	return t, err
}
