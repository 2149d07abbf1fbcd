// Package admin implementa as operações forçadas de administradores.
// Ignoram limite diário e score de fraude, mas nunca bloqueio, status ou saldo negativo.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

type Override struct {
	st        store.Store
	wallets   *wallet.Store
	ledger    *ledger.Ledger
	audit     *audit.Log
	publisher transfer.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func New(st store.Store, wallets *wallet.Store, l *ledger.Ledger, a *audit.Log, pub transfer.Publisher, log *zap.Logger, now func() time.Time) *Override {
	if now == nil {
		now = time.Now
	}
	return &Override{st: st, wallets: wallets, ledger: l, audit: a, publisher: pub, log: log, now: now}
}

// Transfer move saldo entre duas carteiras criando um TransferRequest já concluído,
// para que o par do ledger compartilhe a transferência de origem
func (o *Override) Transfer(ctx context.Context, fromID, toID string, amountCents int64, reason string) (model.TransferRequest, error) {
	if amountCents <= 0 {
		o.denied(ctx, fromID, model.ActionAdminTransfer, fmt.Sprintf("admin transfer to %q", toID), amountCents, model.ErrInvalidAmount)
		return model.TransferRequest{}, model.ErrInvalidAmount
	}
	if fromID == "" || toID == "" || fromID == toID {
		o.denied(ctx, fromID, model.ActionAdminTransfer, fmt.Sprintf("admin transfer to %q", toID), amountCents, model.ErrInvalidRecipient)
		return model.TransferRequest{}, model.ErrInvalidRecipient
	}

	var out model.TransferRequest
	err := store.RunWithRetry(ctx, o.st, o.wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		from, to, err := o.wallets.DualUpdateInTx(ctx, tx, fromID, toID, amountCents, wallet.Constraints{})
		if err != nil {
			return err
		}

		now := o.now()
		req := model.TransferRequest{
			ID:          uuid.New().String(),
			FromOwnerID: fromID,
			ToOwnerID:   toID,
			AmountCents: amountCents,
			Reason:      reason,
			Status:      model.TransferCompleted,
			AdminNotes:  "admin override",
			Admin:       true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertTransfer(ctx, req); err != nil {
			return err
		}

		_, _, err = o.ledger.AppendPairInTx(ctx, tx,
			model.Transaction{
				OwnerID:           fromID,
				Kind:              model.KindAdminTransferSent,
				AmountCents:       -amountCents,
				Currency:          from.Currency,
				Description:       "Admin transfer to " + toID + ": " + reason,
				RelatedTransferID: req.ID,
				BalanceAfterCents: from.BalanceCents,
			},
			model.Transaction{
				OwnerID:           toID,
				Kind:              model.KindAdminTransferReceived,
				AmountCents:       amountCents,
				Currency:          to.Currency,
				Description:       "Admin transfer from " + fromID + ": " + reason,
				RelatedTransferID: req.ID,
				BalanceAfterCents: to.BalanceCents,
			})
		if err != nil {
			return err
		}

		details := fmt.Sprintf("admin transfer %s of %s from %s to %s: %s",
			req.ID, model.FormatAmount(amountCents), fromID, toID, reason)
		if _, err := o.audit.Record(ctx, tx, fromID, model.ActionAdminTransfer, details, model.RiskHigh); err != nil {
			return err
		}

		if o.publisher != nil {
			tx.AfterCommit(func() { o.publisher.TransferChanged(context.WithoutCancel(ctx), req) })
		}
		out = req
		return nil
	})
	if err != nil {
		o.denied(ctx, fromID, model.ActionAdminTransfer, fmt.Sprintf("admin transfer to %q", toID), amountCents, err)
		return model.TransferRequest{}, err
	}

	o.log.Info("admin transfer completed",
		zap.String("transfer_id", out.ID), zap.String("from", fromID), zap.String("to", toID),
		zap.Int64("amount_cents", amountCents))
	return out, nil
}

// AddBonus credita um bônus administrativo
func (o *Override) AddBonus(ctx context.Context, ownerID string, amountCents int64, reason string) (model.Transaction, error) {
	if amountCents <= 0 {
		o.denied(ctx, ownerID, model.ActionAdminBonus, "admin bonus", amountCents, model.ErrInvalidAmount)
		return model.Transaction{}, model.ErrInvalidAmount
	}

	var out model.Transaction
	err := store.RunWithRetry(ctx, o.st, o.wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		w, err := o.wallets.UpdateInTx(ctx, tx, ownerID, amountCents, wallet.Constraints{})
		if err != nil {
			return err
		}

		out, err = o.ledger.AppendInTx(ctx, tx, model.Transaction{
			OwnerID:           ownerID,
			Kind:              model.KindAdminBonus,
			AmountCents:       amountCents,
			Currency:          w.Currency,
			Description:       "Admin bonus: " + reason,
			BalanceAfterCents: w.BalanceCents,
		})
		if err != nil {
			return err
		}

		details := fmt.Sprintf("admin bonus of %s: %s", model.FormatAmount(amountCents), reason)
		_, err = o.audit.Record(ctx, tx, ownerID, model.ActionAdminBonus, details, model.RiskMedium)
		return err
	})
	if err != nil {
		o.denied(ctx, ownerID, model.ActionAdminBonus, "admin bonus", amountCents, err)
		return model.Transaction{}, err
	}

	o.log.Info("admin bonus granted", zap.String("owner_id", ownerID), zap.Int64("amount_cents", amountCents))
	return out, nil
}

// denied grava a rejeição fora da transação que falhou, para que sobreviva ao rollback.
// Conflitos e falhas de infraestrutura não são rejeições e ficam só no log.
func (o *Override) denied(ctx context.Context, ownerID, action, what string, amountCents int64, cause error) {
	if ownerID == "" || !model.IsValidation(cause) {
		return
	}
	details := fmt.Sprintf("%s of %s denied: %v", what, model.FormatAmount(amountCents), cause)
	_, _ = o.audit.Append(ctx, ownerID, action, details, model.RiskHigh)
}
