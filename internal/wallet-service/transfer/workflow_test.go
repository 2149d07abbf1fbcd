package transfer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/fraud"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/testenv"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

var units = testenv.Units

func request(from, to string, cents int64) transfer.RequestInput {
	return transfer.RequestInput{FromOwnerID: from, ToOwnerID: to, AmountCents: cents, Reason: "bingo night"}
}

func TestRequest_SmallTransferAutoApproves(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(1000))
	env.Fund(t, "bob", units(10))

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(500)))
	require.NoError(t, err)

	assert.Equal(t, model.TransferCompleted, tr.Status)
	assert.Equal(t, 0, tr.FraudScore)
	assert.Equal(t, units(500), env.Balance(t, "alice"))
	assert.Equal(t, units(510), env.Balance(t, "bob"))
	assert.Equal(t, units(500), env.Wallet(t, "alice").DailyUsedCents)

	entries, err := env.Ledger.ByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	byKind := map[model.TransactionKind]model.Transaction{}
	for _, e := range entries {
		byKind[e.Kind] = e
	}
	assert.Equal(t, -units(500), byKind[model.KindTransferSent].AmountCents)
	assert.Equal(t, "alice", byKind[model.KindTransferSent].OwnerID)
	assert.Equal(t, units(500), byKind[model.KindTransferSent].BalanceAfterCents)
	assert.Equal(t, units(500), byKind[model.KindTransferReceived].AmountCents)
	assert.Equal(t, "bob", byKind[model.KindTransferReceived].OwnerID)
	assert.Equal(t, units(510), byKind[model.KindTransferReceived].BalanceAfterCents)

	actions := env.Actions(t, "alice")
	assert.Contains(t, actions, model.ActionTransferRequested)
	assert.Contains(t, actions, model.ActionTransferApproved)
	assert.Equal(t, []string{transfer.OutcomeApproved, transfer.OutcomeAutoApproved}, env.Outcomes)

	events := env.Events.All()
	require.Len(t, events, 2)
	assert.Equal(t, model.TransferPending, events[0].Status)
	assert.Equal(t, model.TransferCompleted, events[1].Status)
}

func TestRequest_LargeTransferStaysPending(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(7000))
	_, err := env.Wallets.SetLimits(ctx, "alice", units(10000), units(10000))
	require.NoError(t, err)

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(6000)))
	require.NoError(t, err)

	assert.Equal(t, model.TransferPending, tr.Status)
	assert.Equal(t, 50, tr.FraudScore)
	assert.Equal(t, units(7000), env.Balance(t, "alice"))
	assert.Equal(t, int64(0), env.Wallet(t, "alice").DailyUsedCents)

	pending, err := env.Transfers.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, tr.ID, pending[0].ID)

	done, err := env.Transfers.Approve(ctx, tr.ID, "checked by ops")
	require.NoError(t, err)
	assert.Equal(t, model.TransferCompleted, done.Status)
	assert.Equal(t, "checked by ops", done.AdminNotes)
	assert.Equal(t, units(1000), env.Balance(t, "alice"))
	assert.Equal(t, units(6000), env.Balance(t, "bob"))

	_, err = env.Transfers.Approve(ctx, tr.ID, "again")
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
	_, err = env.Transfers.Reject(ctx, tr.ID, "too late")
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
	assert.Equal(t, units(1000), env.Balance(t, "alice"))

	pending, err = env.Transfers.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRequest_RiskLevelFollowsScore(t *testing.T) {
	for _, tc := range []struct {
		score int
		risk  model.RiskLevel
	}{
		{40, model.RiskMedium},
		{50, model.RiskMedium},
		{51, model.RiskHigh},
	} {
		score := tc.score
		env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return score })))
		env.Fund(t, "alice", units(100))

		tr, err := env.Transfers.Request(context.Background(), request("alice", "bob", units(10)))
		require.NoError(t, err)
		assert.Equal(t, model.TransferPending, tr.Status)

		logs, err := env.Audit.Query(context.Background(), "alice", 1, nil)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, model.ActionTransferRequested, logs[0].Action)
		assert.Equal(t, tc.risk, logs[0].RiskLevel, "score %d", score)
	}
}

func TestRequest_AutoApproveBoundary(t *testing.T) {
	env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return 30 })))
	env.Fund(t, "alice", units(100))

	tr, err := env.Transfers.Request(context.Background(), request("alice", "bob", units(10)))
	require.NoError(t, err)
	assert.Equal(t, model.TransferCompleted, tr.Status)
}

func TestReject_LeavesBalancesUntouched(t *testing.T) {
	env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return 80 })))
	ctx := context.Background()
	env.Fund(t, "alice", units(100))

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(40)))
	require.NoError(t, err)

	rejected, err := env.Transfers.Reject(ctx, tr.ID, "looks like account sharing")
	require.NoError(t, err)
	assert.Equal(t, model.TransferRejected, rejected.Status)
	assert.Equal(t, units(100), env.Balance(t, "alice"))

	entries, err := env.Ledger.ByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, env.Actions(t, "alice"), model.ActionTransferRejected)

	_, err = env.Transfers.Approve(ctx, tr.ID, "")
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
}

func TestRequest_IdenticalRequestsAreIndependent(t *testing.T) {
	env := testenv.New(t)
	env.Fund(t, "alice", units(100))

	a, err := env.Transfers.Request(context.Background(), request("alice", "bob", units(10)))
	require.NoError(t, err)
	b, err := env.Transfers.Request(context.Background(), request("alice", "bob", units(10)))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, units(80), env.Balance(t, "alice"))

	sent, err := env.Transfers.ListSent(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, sent, 2)
	received, err := env.Transfers.ListReceived(context.Background(), "bob", 0)
	require.NoError(t, err)
	assert.Len(t, received, 2)
}

func TestRequest_ValidationFailures(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(20000))
	_, err := env.Wallets.SetLimits(ctx, "alice", units(20000), units(2000))
	require.NoError(t, err)

	cases := []struct {
		name string
		in   transfer.RequestInput
		want error
	}{
		{"zero amount", request("alice", "bob", 0), model.ErrInvalidAmount},
		{"negative amount", request("alice", "bob", -units(5)), model.ErrInvalidAmount},
		{"above global ceiling", request("alice", "bob", units(10001)), model.ErrInvalidAmount},
		{"above wallet cap", request("alice", "bob", units(2001)), model.ErrInvalidAmount},
		{"self transfer", request("alice", "alice", units(5)), model.ErrInvalidRecipient},
		{"missing recipient", request("alice", "", units(5)), model.ErrInvalidRecipient},
		{"insufficient balance", request("bob", "alice", units(5)), model.ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Transfers.Request(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, model.IsValidation(err))
			assert.Contains(t, env.Actions(t, tc.in.FromOwnerID), model.ActionTransferDenied)
		})
	}

	assert.Equal(t, units(20000), env.Balance(t, "alice"))
	sent, err := env.Transfers.ListSent(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestRequest_LockTakesPrecedenceOverBalance(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(5))
	_, err := env.Wallets.Lock(ctx, "alice", "manual review")
	require.NoError(t, err)

	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(50)))
	assert.ErrorIs(t, err, model.ErrWalletLocked)

	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1)))
	assert.ErrorIs(t, err, model.ErrWalletLocked)
	assert.Equal(t, units(5), env.Balance(t, "alice"))
}

func TestRequest_InactiveSender(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(50))
	_, err := env.Wallets.SetStatus(ctx, "alice", model.WalletClosed, "account closed")
	require.NoError(t, err)

	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1)))
	assert.ErrorIs(t, err, model.ErrWalletInactive)
}

func TestRequest_DailyLimitBreachAndRollover(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(9000))

	_, err := env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)
	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)
	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)
	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)
	assert.Equal(t, units(4000), env.Wallet(t, "alice").DailyUsedCents)

	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1000)+1))
	assert.ErrorIs(t, err, model.ErrDailyLimitExceeded)

	w := env.Wallet(t, "alice")
	assert.Equal(t, 1, w.SuspiciousActivityCount)
	assert.Equal(t, units(5000), w.BalanceCents)
	actions := env.Actions(t, "alice")
	assert.Contains(t, actions, model.ActionLimitBreach)
	assert.Contains(t, actions, model.ActionTransferDenied)

	// exatamente no limite passa
	_, err = env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)

	env.Clock.Advance(24 * time.Hour)
	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(1000)))
	require.NoError(t, err)
	assert.Equal(t, model.TransferCompleted, tr.Status)
	assert.Equal(t, units(1000), env.Wallet(t, "alice").DailyUsedCents)
	assert.Equal(t, "2025-03-11", env.Wallet(t, "alice").LastTransferDate)
}

func TestApprove_FailureLeavesRequestPending(t *testing.T) {
	env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return 70 })))
	ctx := context.Background()
	env.Fund(t, "alice", units(100))

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(80)))
	require.NoError(t, err)
	require.Equal(t, model.TransferPending, tr.Status)

	// saldo consumido por outra operação antes da revisão
	_, err = env.Wallets.AtomicUpdate(ctx, "alice", -units(50), wallet.Constraints{})
	require.NoError(t, err)

	_, err = env.Transfers.Approve(ctx, tr.ID, "ok")
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)

	still, err := env.Transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferPending, still.Status)
	assert.Equal(t, units(50), env.Balance(t, "alice"))
	assert.Contains(t, env.Actions(t, "alice"), model.ActionTransferApprovalFailed)
	assert.Contains(t, env.Outcomes, transfer.OutcomeApprovalFailed)
}

func TestRequest_AutoApprovalFailureReturnsPendingAndError(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(100))
	_, err := env.Wallets.Lock(ctx, "bob", "chargeback")
	require.NoError(t, err)

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(10)))
	assert.ErrorIs(t, err, model.ErrWalletLocked)
	require.NotEmpty(t, tr.ID)
	assert.Equal(t, model.TransferPending, tr.Status)

	stored, err := env.Transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferPending, stored.Status)
	assert.Equal(t, units(100), env.Balance(t, "alice"))
}

func TestApprove_UnknownTransfer(t *testing.T) {
	env := testenv.New(t)
	_, err := env.Transfers.Approve(context.Background(), "does-not-exist", "")
	assert.ErrorIs(t, err, model.ErrTransferNotFound)
	_, err = env.Transfers.Reject(context.Background(), "does-not-exist", "")
	assert.ErrorIs(t, err, model.ErrTransferNotFound)
	_, err = env.Transfers.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, model.ErrTransferNotFound)
}

func TestApprove_RetriesTransientConflicts(t *testing.T) {
	env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return 60 })))
	ctx := context.Background()
	env.Fund(t, "alice", units(100))

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(25)))
	require.NoError(t, err)

	env.Store.InjectConflicts(2)
	done, err := env.Transfers.Approve(ctx, tr.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.TransferCompleted, done.Status)
	assert.Equal(t, units(75), env.Balance(t, "alice"))

	entries, err := env.Ledger.ByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestApprove_ExhaustedRetriesSurfaceConflict(t *testing.T) {
	env := testenv.New(t, testenv.WithScorer(fraud.ScorerFunc(func(fraud.TransferContext) int { return 60 })))
	ctx := context.Background()
	env.Fund(t, "alice", units(100))

	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(25)))
	require.NoError(t, err)

	env.Store.InjectConflicts(100)
	_, err = env.Transfers.Approve(ctx, tr.ID, "")
	assert.ErrorIs(t, err, model.ErrConcurrencyConflict)
	env.Store.InjectConflicts(0)

	assert.Equal(t, units(100), env.Balance(t, "alice"))
	stored, err := env.Transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferPending, stored.Status)
}

func TestRequest_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()
	env.Fund(t, "alice", units(100))
	env.Fund(t, "bob", 0)
	env.Fund(t, "carol", 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, to := range []string{"bob", "carol"} {
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			_, errs[i] = env.Transfers.Request(ctx, request("alice", to, units(70)))
		}(i, to)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	total := env.Balance(t, "alice") + env.Balance(t, "bob") + env.Balance(t, "carol")
	assert.Equal(t, units(100), total)
	assert.Equal(t, units(30), env.Balance(t, "alice"))
}

type fixedVelocity struct{ n int }

func (v fixedVelocity) Observe(context.Context, string) (int, error) { return v.n, nil }

func TestRequest_DeviceAndVelocitySignalsRaiseScore(t *testing.T) {
	scorer := fraud.Composite{
		fraud.DefaultAmountScorer(),
		fraud.DeviceScorer{Points: 15},
		fraud.VelocityScorer{FreeTransfers: 5, Points: 10},
	}
	env := testenv.New(t, testenv.WithScorer(scorer), testenv.WithVelocity(fixedVelocity{n: 7}))
	ctx := context.Background()
	env.Fund(t, "alice", units(100))
	_, err := env.Wallets.RegisterDevice(ctx, "alice", "phone-1")
	require.NoError(t, err)

	ctx = audit.WithClient(ctx, audit.ClientInfo{DeviceFingerprint: "laptop-9", IPAddress: "196.188.0.4"})
	tr, err := env.Transfers.Request(ctx, request("alice", "bob", units(10)))
	require.NoError(t, err)

	assert.Equal(t, 35, tr.FraudScore)
	assert.Equal(t, model.TransferPending, tr.Status)

	logs, err := env.Audit.Query(context.Background(), "alice", 1, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "196.188.0.4", logs[0].IPAddress)
}
