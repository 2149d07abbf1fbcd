// Package funds registra movimentações de uma perna só: pagamentos do gateway e apostas/prêmios de jogos.
package funds

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

type Service struct {
	st      store.Store
	wallets *wallet.Store
	ledger  *ledger.Ledger
	audit   *audit.Log
	log     *zap.Logger
}

func New(st store.Store, wallets *wallet.Store, l *ledger.Ledger, a *audit.Log, log *zap.Logger) *Service {
	return &Service{st: st, wallets: wallets, ledger: l, audit: a, log: log}
}

// Movement descreve uma entrada de perna única
type Movement struct {
	OwnerID     string
	AmountCents int64 // sempre positivo; o sinal vem do tipo
	ExternalRef string
	Description string
}

// Deposit credita um depósito já confirmado pelo gateway.
// O bloqueio da carteira não impede o crédito: o dinheiro já foi liquidado fora.
// Repetir o mesmo ExternalRef devolve a entrada original com model.ErrDuplicate.
func (s *Service) Deposit(ctx context.Context, ownerID string, amountCents int64, externalRef, method string) (model.Transaction, error) {
	return s.record(ctx, model.KindDeposit, Movement{
		OwnerID:     ownerID,
		AmountCents: amountCents,
		ExternalRef: externalRef,
		Description: "Deposit via " + method,
	}, wallet.Constraints{IgnoreLock: true}, model.ActionDeposit, model.RiskLow)
}

// Withdraw debita um saque confirmado pelo gateway
func (s *Service) Withdraw(ctx context.Context, ownerID string, amountCents int64, externalRef, method string) (model.Transaction, error) {
	return s.record(ctx, model.KindWithdrawal, Movement{
		OwnerID:     ownerID,
		AmountCents: amountCents,
		ExternalRef: externalRef,
		Description: "Withdrawal via " + method,
	}, wallet.Constraints{}, model.ActionWithdrawal, model.RiskMedium)
}

// Bet debita a entrada de uma partida; uma por jogo e jogador
func (s *Service) Bet(ctx context.Context, ownerID, gameID string, amountCents int64) (model.Transaction, error) {
	return s.record(ctx, model.KindBet, Movement{
		OwnerID:     ownerID,
		AmountCents: amountCents,
		ExternalRef: gameID,
		Description: "Game entry fee for " + gameID,
	}, wallet.Constraints{}, "", "")
}

func (s *Service) Win(ctx context.Context, ownerID, gameID string, amountCents int64) (model.Transaction, error) {
	return s.record(ctx, model.KindWin, Movement{
		OwnerID:     ownerID,
		AmountCents: amountCents,
		ExternalRef: gameID,
		Description: "Game winnings from " + gameID,
	}, wallet.Constraints{}, "", "")
}

func (s *Service) Refund(ctx context.Context, ownerID, gameID string, amountCents int64) (model.Transaction, error) {
	return s.record(ctx, model.KindRefund, Movement{
		OwnerID:     ownerID,
		AmountCents: amountCents,
		ExternalRef: gameID,
		Description: "Game refund for " + gameID,
	}, wallet.Constraints{}, "", "")
}

func isDebit(kind model.TransactionKind) bool {
	return kind == model.KindWithdrawal || kind == model.KindBet || kind == model.KindFee
}

// record aplica saldo, ledger e (opcionalmente) auditoria no mesmo commit
func (s *Service) record(ctx context.Context, kind model.TransactionKind, m Movement, c wallet.Constraints,
	action string, risk model.RiskLevel) (model.Transaction, error) {

	if m.OwnerID == "" {
		return model.Transaction{}, model.ErrWalletNotFound
	}
	if m.AmountCents <= 0 {
		err := fmt.Errorf("%w: must be positive", model.ErrInvalidAmount)
		s.denied(ctx, kind, m, action, err)
		return model.Transaction{}, err
	}

	delta := m.AmountCents
	if isDebit(kind) {
		delta = -delta
	}

	var out model.Transaction
	err := store.RunWithRetry(ctx, s.st, s.wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		if m.ExternalRef != "" {
			prev, found, err := tx.FindTransactionByRef(ctx, m.OwnerID, kind, m.ExternalRef)
			if err != nil {
				return err
			}
			if found {
				out = prev
				return model.ErrDuplicate
			}
		}

		w, err := s.wallets.UpdateInTx(ctx, tx, m.OwnerID, delta, c)
		if err != nil {
			return err
		}

		out, err = s.ledger.AppendInTx(ctx, tx, model.Transaction{
			OwnerID:           m.OwnerID,
			Kind:              kind,
			AmountCents:       delta,
			Currency:          w.Currency,
			Description:       m.Description,
			ExternalRef:       m.ExternalRef,
			BalanceAfterCents: w.BalanceCents,
		})
		if err != nil {
			return err
		}

		if action != "" {
			details := fmt.Sprintf("%s of %s ref %s", kind, model.FormatAmount(m.AmountCents), m.ExternalRef)
			if _, err := s.audit.Record(ctx, tx, m.OwnerID, action, details, risk); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, model.ErrDuplicate) {
		s.log.Info("duplicate movement ignored",
			zap.String("owner_id", m.OwnerID), zap.String("kind", string(kind)), zap.String("external_ref", m.ExternalRef))
		return out, err
	}
	if err != nil {
		s.denied(ctx, kind, m, action, err)
		return model.Transaction{}, err
	}

	s.log.Info("movement recorded",
		zap.String("owner_id", m.OwnerID),
		zap.String("kind", string(kind)),
		zap.Int64("amount_cents", delta),
		zap.Int64("balance_after_cents", out.BalanceAfterCents))
	return out, nil
}

// denied registra a rejeição com Append, já que a entrada feita dentro da transação sofreu rollback
func (s *Service) denied(ctx context.Context, kind model.TransactionKind, m Movement, action string, cause error) {
	if action == "" || !model.IsValidation(cause) {
		return
	}
	details := fmt.Sprintf("%s of %s ref %s denied: %v", kind, model.FormatAmount(m.AmountCents), m.ExternalRef, cause)
	_, _ = s.audit.Append(ctx, m.OwnerID, action, details, model.RiskHigh)
}
