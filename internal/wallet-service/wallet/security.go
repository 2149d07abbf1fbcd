package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

// mutate executa fn sobre a carteira bloqueada, grava e audita no mesmo commit
func (s *Store) mutate(ctx context.Context, ownerID, action string, risk model.RiskLevel,
	fn func(w *model.Wallet) (string, error)) (model.Wallet, error) {

	var out model.Wallet
	err := store.RunWithRetry(ctx, s.st, s.opts.Retry, func(ctx context.Context, tx store.Tx) error {
		w, err := s.GetOrCreateInTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		details, err := fn(&w)
		if err != nil {
			return err
		}
		if err := s.save(ctx, tx, &w); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, ownerID, action, details, risk); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return model.Wallet{}, err
	}

	s.log.Info("wallet security state changed",
		zap.String("owner_id", ownerID), zap.String("action", action))
	return out, nil
}

// Lock bloqueia a carteira para qualquer movimentação iniciada pelo usuário ou admin
func (s *Store) Lock(ctx context.Context, ownerID, reason string) (model.Wallet, error) {
	return s.mutate(ctx, ownerID, model.ActionWalletLocked, model.RiskHigh, func(w *model.Wallet) (string, error) {
		w.IsLocked = true
		w.LockReason = reason
		return "wallet locked: " + reason, nil
	})
}

func (s *Store) Unlock(ctx context.Context, ownerID string) (model.Wallet, error) {
	return s.mutate(ctx, ownerID, model.ActionWalletUnlocked, model.RiskMedium, func(w *model.Wallet) (string, error) {
		w.IsLocked = false
		w.LockReason = ""
		return "wallet unlocked", nil
	})
}

// SetLimits altera o limite diário e o teto por transferência (valores em centavos)
func (s *Store) SetLimits(ctx context.Context, ownerID string, dailyCents, perTransferCents int64) (model.Wallet, error) {
	if dailyCents <= 0 || perTransferCents <= 0 {
		return model.Wallet{}, model.ErrInvalidAmount
	}
	return s.mutate(ctx, ownerID, model.ActionLimitsChanged, model.RiskMedium, func(w *model.Wallet) (string, error) {
		details := fmt.Sprintf("daily %s -> %s, per transfer %s -> %s",
			model.FormatAmount(w.DailyLimitCents), model.FormatAmount(dailyCents),
			model.FormatAmount(w.TransferLimitCents), model.FormatAmount(perTransferCents))
		w.DailyLimitCents = dailyCents
		w.TransferLimitCents = perTransferCents
		return details, nil
	})
}

// SetStatus suspende, fecha ou reativa a carteira; carteiras nunca são apagadas
func (s *Store) SetStatus(ctx context.Context, ownerID string, status model.WalletStatus, reason string) (model.Wallet, error) {
	switch status {
	case model.WalletActive, model.WalletSuspended, model.WalletClosed:
	default:
		return model.Wallet{}, fmt.Errorf("unknown wallet status %q", status)
	}
	return s.mutate(ctx, ownerID, model.ActionWalletStatusChanged, model.RiskHigh, func(w *model.Wallet) (string, error) {
		details := fmt.Sprintf("status %s -> %s: %s", w.Status, status, reason)
		w.Status = status
		return details, nil
	})
}

// RegisterDevice grava o fingerprint confiável do dispositivo (trust on first use).
// Trocar um fingerprint já registrado é auditado com risco alto.
func (s *Store) RegisterDevice(ctx context.Context, ownerID, fingerprint string) (model.Wallet, error) {
	if fingerprint == "" {
		return model.Wallet{}, fmt.Errorf("empty device fingerprint")
	}

	var out model.Wallet
	err := store.RunWithRetry(ctx, s.st, s.opts.Retry, func(ctx context.Context, tx store.Tx) error {
		w, err := s.GetOrCreateInTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if w.DeviceFingerprint == fingerprint {
			out = w
			return nil
		}

		risk, details := model.RiskLow, "device registered"
		if w.DeviceFingerprint != "" {
			risk, details = model.RiskHigh, "device fingerprint replaced"
		}
		w.DeviceFingerprint = fingerprint
		if err := s.save(ctx, tx, &w); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, ownerID, model.ActionDeviceRegistered, details, risk); err != nil {
			return err
		}
		out = w
		return nil
	})
	return out, err
}

// RecordLimitBreachInTx incrementa o contador de atividade suspeita e audita LIMIT_BREACH
func (s *Store) RecordLimitBreachInTx(ctx context.Context, tx store.Tx, ownerID string, attemptedCents int64) error {
	w, err := s.GetOrCreateInTx(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	w.SuspiciousActivityCount++
	if err := s.save(ctx, tx, &w); err != nil {
		return err
	}

	details := fmt.Sprintf("attempted %s with %s of %s already used today",
		model.FormatAmount(attemptedCents), model.FormatAmount(w.DailyUsedOn(s.Today())), model.FormatAmount(w.DailyLimitCents))
	_, err = s.audit.Record(ctx, tx, ownerID, model.ActionLimitBreach, details, model.RiskHigh)
	return err
}
