// Package audit mantém o log de segurança append-only da carteira.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

// Mirror replica entradas já commitadas para fora do serviço (ex.: Kafka)
type Mirror interface {
	PublishSecurity(ctx context.Context, e model.SecurityLogEntry)
}

type Log struct {
	st     store.Store
	log    *zap.Logger
	mirror Mirror
	now    func() time.Time
}

func New(st store.Store, log *zap.Logger, mirror Mirror, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{st: st, log: log, mirror: mirror, now: now}
}

// Record grava a entrada dentro da transação do chamador.
// O espelhamento externo só acontece após o commit.
func (l *Log) Record(ctx context.Context, tx store.Tx, ownerID, action, details string, risk model.RiskLevel) (model.SecurityLogEntry, error) {
	ci := ClientFrom(ctx)
	at := l.now()
	e := model.SecurityLogEntry{
		ID:                model.NewSortableID(at),
		OwnerID:           ownerID,
		Action:            action,
		Details:           details,
		RiskLevel:         risk,
		IPAddress:         ci.IPAddress,
		UserAgent:         ci.UserAgent,
		Location:          ci.Location,
		DeviceFingerprint: ci.DeviceFingerprint,
		Timestamp:         at,
	}
	if err := tx.InsertSecurityLog(ctx, e); err != nil {
		return model.SecurityLogEntry{}, err
	}

	if l.mirror != nil {
		tx.AfterCommit(func() {
			l.mirror.PublishSecurity(context.WithoutCancel(ctx), e)
		})
	}
	return e, nil
}

// Append grava a entrada numa transação própria
func (l *Log) Append(ctx context.Context, ownerID, action, details string, risk model.RiskLevel) (model.SecurityLogEntry, error) {
	var e model.SecurityLogEntry
	err := l.st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = l.Record(ctx, tx, ownerID, action, details, risk)
		return err
	})
	if err != nil {
		l.log.Error("security log append failed",
			zap.String("owner_id", ownerID), zap.String("action", action), zap.Error(err))
		return model.SecurityLogEntry{}, err
	}
	return e, nil
}

// Query lista entradas do mais novo para o mais antigo; ownerID vazio lista todas (uso administrativo)
func (l *Log) Query(ctx context.Context, ownerID string, limit int, before *store.Cursor) ([]model.SecurityLogEntry, error) {
	return l.st.ListSecurityLogs(ctx, ownerID, store.ClampLimit(limit), before)
}
