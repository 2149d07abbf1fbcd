// Package transfer implementa o fluxo de transferência entre jogadores:
// validação, score de fraude, aprovação automática ou fila de revisão e execução atômica.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/fraud"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

// Resultados reportados em OnOutcome
const (
	OutcomeDenied         = "denied"
	OutcomePending        = "pending"
	OutcomeAutoApproved   = "auto_approved"
	OutcomeApproved       = "approved"
	OutcomeApprovalFailed = "approval_failed"
	OutcomeRejected       = "rejected"
)

// Policy são os limites e thresholds do fluxo
type Policy struct {
	MaxTransferCents    int64
	AutoApproveMaxScore int
	HighRiskAboveScore  int
}

// VelocitySource conta tentativas recentes do remetente (Redis em produção)
type VelocitySource interface {
	Observe(ctx context.Context, ownerID string) (int, error)
}

// Publisher recebe cada mudança de estado de uma transferência após o commit
type Publisher interface {
	TransferChanged(ctx context.Context, t model.TransferRequest)
}

type Deps struct {
	Store     store.Store
	Wallets   *wallet.Store
	Ledger    *ledger.Ledger
	Audit     *audit.Log
	Scorer    fraud.Scorer
	Velocity  VelocitySource
	Publisher Publisher
	Log       *zap.Logger
	Now       func() time.Time

	OnOutcome func(outcome string)
}

type Workflow struct {
	d      Deps
	policy Policy
}

func New(d Deps, p Policy) *Workflow {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Scorer == nil {
		d.Scorer = fraud.DefaultAmountScorer()
	}
	return &Workflow{d: d, policy: p}
}

// RequestInput é o pedido de transferência vindo do usuário
type RequestInput struct {
	FromOwnerID  string
	ToOwnerID    string
	AmountCents  int64
	Reason       string
	SecurityCode string
}

// Request valida, pontua e registra a transferência.
// Score dentro do limite de aprovação automática executa na hora; acima disso fica pendente.
// Se a execução automática falhar, a transferência pendente é retornada junto com o erro.
func (w *Workflow) Request(ctx context.Context, in RequestInput) (model.TransferRequest, error) {
	if err := w.validate(in); err != nil {
		w.deny(ctx, in, err)
		return model.TransferRequest{}, err
	}

	sender, err := w.d.Wallets.GetOrCreate(ctx, in.FromOwnerID)
	if err != nil {
		return model.TransferRequest{}, fmt.Errorf("load sender: %w", err)
	}

	if in.AmountCents > sender.TransferLimitCents {
		err := fmt.Errorf("%w: above per-transfer limit %s", model.ErrInvalidAmount, model.FormatAmount(sender.TransferLimitCents))
		w.deny(ctx, in, err)
		return model.TransferRequest{}, err
	}

	if _, err := w.d.Wallets.CheckDebit(sender, in.AmountCents, wallet.Constraints{DailyLimited: true}); err != nil {
		if errors.Is(err, model.ErrDailyLimitExceeded) {
			w.breach(ctx, in, err)
		} else {
			w.deny(ctx, in, err)
		}
		return model.TransferRequest{}, err
	}

	score := w.d.Scorer.Score(w.signals(ctx, in, sender))

	now := w.d.Now()
	req := model.TransferRequest{
		ID:           uuid.New().String(),
		FromOwnerID:  in.FromOwnerID,
		ToOwnerID:    in.ToOwnerID,
		AmountCents:  in.AmountCents,
		Reason:       in.Reason,
		FraudScore:   score,
		Status:       model.TransferPending,
		SecurityCode: in.SecurityCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	risk := model.RiskMedium
	if score > w.policy.HighRiskAboveScore {
		risk = model.RiskHigh
	}

	err = store.RunWithRetry(ctx, w.d.Store, w.d.Wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertTransfer(ctx, req); err != nil {
			return err
		}
		details := fmt.Sprintf("transfer %s of %s to %s requested, fraud score %d",
			req.ID, model.FormatAmount(req.AmountCents), req.ToOwnerID, score)
		if _, err := w.d.Audit.Record(ctx, tx, req.FromOwnerID, model.ActionTransferRequested, details, risk); err != nil {
			return err
		}
		w.publishAfterCommit(ctx, tx, req)
		return nil
	})
	if err != nil {
		return model.TransferRequest{}, fmt.Errorf("persist transfer request: %w", err)
	}

	w.d.Log.Info("transfer requested",
		zap.String("transfer_id", req.ID),
		zap.String("from", req.FromOwnerID),
		zap.String("to", req.ToOwnerID),
		zap.Int64("amount_cents", req.AmountCents),
		zap.Int("fraud_score", score))

	if score > w.policy.AutoApproveMaxScore {
		w.outcome(OutcomePending)
		return req, nil
	}

	approved, err := w.Approve(ctx, req.ID, fmt.Sprintf("auto-approved, fraud score %d", score))
	if err != nil {
		return req, err
	}
	w.outcome(OutcomeAutoApproved)
	return approved, nil
}

// Approve executa uma transferência pendente: débito+crédito, par no ledger, status completed e auditoria
// no mesmo commit. Em falha a transferência continua pendente e TRANSFER_APPROVAL_FAILED é registrado.
func (w *Workflow) Approve(ctx context.Context, id, notes string) (model.TransferRequest, error) {
	var (
		out     model.TransferRequest
		pending model.TransferRequest
	)

	err := store.RunWithRetry(ctx, w.d.Store, w.d.Wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		req, err := tx.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != model.TransferPending {
			return fmt.Errorf("%w: transfer %s is %s", model.ErrAlreadyProcessed, id, req.Status)
		}
		pending = req

		from, to, err := w.d.Wallets.DualUpdateInTx(ctx, tx, req.FromOwnerID, req.ToOwnerID, req.AmountCents,
			wallet.Constraints{DailyLimited: true})
		if err != nil {
			return err
		}

		_, _, err = w.d.Ledger.AppendPairInTx(ctx, tx,
			model.Transaction{
				OwnerID:           from.OwnerID,
				Kind:              model.KindTransferSent,
				AmountCents:       -req.AmountCents,
				Currency:          from.Currency,
				Description:       describe("Transfer to "+to.OwnerID, req.Reason),
				RelatedTransferID: req.ID,
				BalanceAfterCents: from.BalanceCents,
			},
			model.Transaction{
				OwnerID:           to.OwnerID,
				Kind:              model.KindTransferReceived,
				AmountCents:       req.AmountCents,
				Currency:          to.Currency,
				Description:       describe("Transfer from "+from.OwnerID, req.Reason),
				RelatedTransferID: req.ID,
				BalanceAfterCents: to.BalanceCents,
			})
		if err != nil {
			return err
		}

		req.Status = model.TransferCompleted
		req.AdminNotes = notes
		req.UpdatedAt = w.d.Now()
		if err := tx.UpdateTransfer(ctx, req); err != nil {
			return err
		}

		details := fmt.Sprintf("transfer %s of %s to %s completed", req.ID, model.FormatAmount(req.AmountCents), req.ToOwnerID)
		if _, err := w.d.Audit.Record(ctx, tx, req.FromOwnerID, model.ActionTransferApproved, details, model.RiskLow); err != nil {
			return err
		}

		w.publishAfterCommit(ctx, tx, req)
		out = req
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrTransferNotFound) || errors.Is(err, model.ErrAlreadyProcessed) {
			return model.TransferRequest{}, err
		}
		w.approvalFailed(ctx, pending, err)
		return model.TransferRequest{}, fmt.Errorf("approve transfer %s: %w", id, err)
	}

	w.d.Log.Info("transfer completed",
		zap.String("transfer_id", out.ID),
		zap.Int64("amount_cents", out.AmountCents))
	w.outcome(OutcomeApproved)
	return out, nil
}

// Reject encerra uma transferência pendente sem mexer em saldo
func (w *Workflow) Reject(ctx context.Context, id, notes string) (model.TransferRequest, error) {
	var out model.TransferRequest
	err := store.RunWithRetry(ctx, w.d.Store, w.d.Wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		req, err := tx.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != model.TransferPending {
			return fmt.Errorf("%w: transfer %s is %s", model.ErrAlreadyProcessed, id, req.Status)
		}

		req.Status = model.TransferRejected
		req.AdminNotes = notes
		req.UpdatedAt = w.d.Now()
		if err := tx.UpdateTransfer(ctx, req); err != nil {
			return err
		}

		details := fmt.Sprintf("transfer %s rejected: %s", req.ID, notes)
		if _, err := w.d.Audit.Record(ctx, tx, req.FromOwnerID, model.ActionTransferRejected, details, model.RiskMedium); err != nil {
			return err
		}

		w.publishAfterCommit(ctx, tx, req)
		out = req
		return nil
	})
	if err != nil {
		return model.TransferRequest{}, err
	}

	w.outcome(OutcomeRejected)
	return out, nil
}

func (w *Workflow) Get(ctx context.Context, id string) (model.TransferRequest, error) {
	var out model.TransferRequest
	err := w.d.Store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.GetTransfer(ctx, id)
		return err
	})
	return out, err
}

func (w *Workflow) ListSent(ctx context.Context, ownerID string, limit int) ([]model.TransferRequest, error) {
	return w.d.Store.ListTransfers(ctx, store.TransferFilter{FromOwnerID: ownerID, Limit: store.ClampLimit(limit)})
}

func (w *Workflow) ListReceived(ctx context.Context, ownerID string, limit int) ([]model.TransferRequest, error) {
	return w.d.Store.ListTransfers(ctx, store.TransferFilter{ToOwnerID: ownerID, Limit: store.ClampLimit(limit)})
}

// ListPending é a fila de revisão administrativa
func (w *Workflow) ListPending(ctx context.Context, limit int) ([]model.TransferRequest, error) {
	return w.d.Store.ListTransfers(ctx, store.TransferFilter{Status: model.TransferPending, Limit: store.ClampLimit(limit)})
}

func (w *Workflow) validate(in RequestInput) error {
	switch {
	case in.AmountCents <= 0:
		return fmt.Errorf("%w: must be positive", model.ErrInvalidAmount)
	case in.AmountCents > w.policy.MaxTransferCents:
		return fmt.Errorf("%w: above maximum %s", model.ErrInvalidAmount, model.FormatAmount(w.policy.MaxTransferCents))
	case in.ToOwnerID == "" || in.FromOwnerID == "":
		return fmt.Errorf("%w: missing owner", model.ErrInvalidRecipient)
	case in.FromOwnerID == in.ToOwnerID:
		return fmt.Errorf("%w: cannot transfer to self", model.ErrInvalidRecipient)
	}
	return nil
}

// signals coleta os dados externos do score; falha do contador de velocidade não bloqueia a transferência
func (w *Workflow) signals(ctx context.Context, in RequestInput, sender model.Wallet) fraud.TransferContext {
	ci := audit.ClientFrom(ctx)
	tc := fraud.TransferContext{
		FromOwnerID:             in.FromOwnerID,
		ToOwnerID:               in.ToOwnerID,
		AmountCents:             in.AmountCents,
		DeviceMismatch:          sender.DeviceFingerprint != "" && ci.DeviceFingerprint != "" && ci.DeviceFingerprint != sender.DeviceFingerprint,
		SuspiciousActivityCount: sender.SuspiciousActivityCount,
	}

	if w.d.Velocity != nil {
		n, err := w.d.Velocity.Observe(ctx, in.FromOwnerID)
		if err != nil {
			w.d.Log.Warn("velocity signal unavailable", zap.String("owner_id", in.FromOwnerID), zap.Error(err))
		} else {
			tc.RecentTransfers = n
		}
	}
	return tc
}

// deny registra TRANSFER_DENIED numa transação própria; a rejeição já foi decidida
func (w *Workflow) deny(ctx context.Context, in RequestInput, cause error) {
	w.outcome(OutcomeDenied)
	if in.FromOwnerID == "" {
		return
	}
	details := fmt.Sprintf("transfer of %s to %q denied: %v", model.FormatAmount(in.AmountCents), in.ToOwnerID, cause)
	_, _ = w.d.Audit.Append(ctx, in.FromOwnerID, model.ActionTransferDenied, details, model.RiskMedium)
}

// breach registra estouro do limite diário: contador de atividade suspeita, LIMIT_BREACH e TRANSFER_DENIED
func (w *Workflow) breach(ctx context.Context, in RequestInput, cause error) {
	w.outcome(OutcomeDenied)
	err := store.RunWithRetry(ctx, w.d.Store, w.d.Wallets.Retry(), func(ctx context.Context, tx store.Tx) error {
		if err := w.d.Wallets.RecordLimitBreachInTx(ctx, tx, in.FromOwnerID, in.AmountCents); err != nil {
			return err
		}
		details := fmt.Sprintf("transfer of %s to %q denied: %v", model.FormatAmount(in.AmountCents), in.ToOwnerID, cause)
		_, err := w.d.Audit.Record(ctx, tx, in.FromOwnerID, model.ActionTransferDenied, details, model.RiskHigh)
		return err
	})
	if err != nil {
		w.d.Log.Error("record limit breach failed", zap.String("owner_id", in.FromOwnerID), zap.Error(err))
	}
}

func (w *Workflow) approvalFailed(ctx context.Context, req model.TransferRequest, cause error) {
	w.outcome(OutcomeApprovalFailed)
	w.d.Log.Warn("transfer approval failed", zap.String("transfer_id", req.ID), zap.Error(cause))
	if req.FromOwnerID == "" {
		return
	}
	details := fmt.Sprintf("transfer %s left pending: %v", req.ID, cause)
	_, _ = w.d.Audit.Append(ctx, req.FromOwnerID, model.ActionTransferApprovalFailed, details, model.RiskMedium)
}

func (w *Workflow) publishAfterCommit(ctx context.Context, tx store.Tx, req model.TransferRequest) {
	if w.d.Publisher == nil {
		return
	}
	tx.AfterCommit(func() {
		w.d.Publisher.TransferChanged(context.WithoutCancel(ctx), req)
	})
}

func (w *Workflow) outcome(o string) {
	if w.d.OnOutcome != nil {
		w.d.OnOutcome(o)
	}
}

func describe(base, reason string) string {
	if reason == "" {
		return base
	}
	return base + ": " + reason
}
