// Package bonus concede recompensas por convites.
package bonus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

type Policy struct {
	Threshold   int   // convites necessários por bônus
	RewardCents int64 // valor de cada bônus
}

// Result informa o estado do contador após o convite
type Result struct {
	Counter model.InvitationCounter
	Granted bool
	Bonus   model.Transaction
}

type Service struct {
	st      store.Store
	wallets *wallet.Store
	ledger  *ledger.Ledger
	audit   *audit.Log
	policy  Policy
	log     *zap.Logger
	now     func() time.Time
}

func New(st store.Store, wallets *wallet.Store, l *ledger.Ledger, a *audit.Log, p Policy, log *zap.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if p.Threshold <= 0 {
		p.Threshold = 1
	}
	return &Service{st: st, wallets: wallets, ledger: l, audit: a, policy: p, log: log, now: now}
}

// ProcessInvitation conta um convite aceito; idempotente por (convidante, convidado).
// Cada vez que o contador atinge um múltiplo do threshold, um bônus é creditado no mesmo commit.
func (s *Service) ProcessInvitation(ctx context.Context, inviterID, inviteeID string) (Result, error) {
	if inviterID == "" || inviteeID == "" || inviterID == inviteeID {
		return Result{}, model.ErrInvalidRecipient
	}

	var res Result
	err := store.RunWithRetry(ctx, s.st, s.wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		res = Result{}
		now := s.now()
		if err := tx.InsertInvitation(ctx, inviterID, inviteeID, now); err != nil {
			return err
		}

		c, err := tx.GetInvitationCounter(ctx, inviterID)
		if err != nil {
			return err
		}
		c.Count++
		c.UpdatedAt = now

		if c.Count%s.policy.Threshold == 0 {
			w, err := s.wallets.UpdateInTx(ctx, tx, inviterID, s.policy.RewardCents, wallet.Constraints{})
			if err != nil {
				return err
			}
			res.Bonus, err = s.ledger.AppendInTx(ctx, tx, model.Transaction{
				OwnerID:           inviterID,
				Kind:              model.KindBonus,
				AmountCents:       s.policy.RewardCents,
				Currency:          w.Currency,
				Description:       fmt.Sprintf("Invitation bonus for %d invitations", c.Count),
				BalanceAfterCents: w.BalanceCents,
			})
			if err != nil {
				return err
			}
			details := fmt.Sprintf("invitation bonus of %s after %d invitations", model.FormatAmount(s.policy.RewardCents), c.Count)
			if _, err := s.audit.Record(ctx, tx, inviterID, model.ActionInvitationBonus, details, model.RiskLow); err != nil {
				return err
			}
			c.RewardsGranted++
			res.Granted = true
		}

		if err := tx.SaveInvitationCounter(ctx, c); err != nil {
			return err
		}
		res.Counter = c
		return nil
	})
	if errors.Is(err, model.ErrDuplicate) {
		return Result{}, fmt.Errorf("invitation %s -> %s: %w", inviterID, inviteeID, err)
	}
	if err != nil {
		return Result{}, err
	}

	if res.Granted {
		s.log.Info("invitation bonus granted",
			zap.String("inviter_id", inviterID), zap.Int("count", res.Counter.Count))
	}
	return res, nil
}
