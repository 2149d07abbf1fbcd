// Package postgres implementa store.Store sobre database/sql + lib/pq.
// Linhas de carteira e transferência são lidas com SELECT ... FOR UPDATE dentro da transação.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

// Store é o motor transacional em Postgres
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer sqlTx.Rollback()

	t := &tx{tx: sqlTx}
	if err := fn(ctx, t); err != nil {
		return mapError(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return mapError(err)
	}

	for _, f := range t.after {
		f()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

func (s *Store) ReadWallet(ctx context.Context, ownerID string) (model.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, selectWallet+` WHERE owner_id=$1`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Wallet{}, model.ErrWalletNotFound
	}
	return w, mapError(err)
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string, limit int, before *store.Cursor) ([]model.Transaction, error) {
	q := selectTransaction + ` WHERE owner_id=$1`
	args := []any{ownerID}
	if before != nil {
		q += ` AND (created_at, id) < ($2, $3)`
		args = append(args, before.CreatedAt, before.ID)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}

	return s.queryTransactions(ctx, q, args...)
}

func (s *Store) ListTransactionsByTransfer(ctx context.Context, transferID string) ([]model.Transaction, error) {
	return s.queryTransactions(ctx, selectTransaction+` WHERE related_transfer_id=$1 ORDER BY created_at, id`, transferID)
}

func (s *Store) queryTransactions(ctx context.Context, q string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, t)
	}
	return out, mapError(rows.Err())
}

func (s *Store) ListSecurityLogs(ctx context.Context, ownerID string, limit int, before *store.Cursor) ([]model.SecurityLogEntry, error) {
	q := selectSecurityLog + ` WHERE ($1::text = '' OR owner_id=$1)`
	args := []any{ownerID}
	if before != nil {
		q += ` AND (created_at, id) < ($2, $3)`
		args = append(args, before.CreatedAt, before.ID)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []model.SecurityLogEntry
	for rows.Next() {
		var e model.SecurityLogEntry
		var risk string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Action, &e.Details, &risk, &e.IPAddress,
			&e.UserAgent, &e.Location, &e.DeviceFingerprint, &e.Timestamp); err != nil {
			return nil, mapError(err)
		}
		e.RiskLevel = model.RiskLevel(risk)
		out = append(out, e)
	}
	return out, mapError(rows.Err())
}

func (s *Store) ListTransfers(ctx context.Context, f store.TransferFilter) ([]model.TransferRequest, error) {
	q := selectTransfer + ` WHERE ($1::text = '' OR from_owner_id=$1) AND ($2::text = '' OR to_owner_id=$2) AND ($3::text = '' OR status=$3)
		ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, f.FromOwnerID, f.ToOwnerID, string(f.Status))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []model.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, t)
	}
	return out, mapError(rows.Err())
}

// mapError traduz erros do driver para os sentinelas do domínio
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "40001" || pqErr.Code == "40P01":
			return fmt.Errorf("%w: %s", model.ErrConcurrencyConflict, pqErr.Message)
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %s", model.ErrDuplicate, pqErr.Constraint)
		case pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57":
			return fmt.Errorf("%w: %s", model.ErrStoreUnavailable, pqErr.Message)
		}
		return err
	}

	var netErr *net.OpError
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return err
}
