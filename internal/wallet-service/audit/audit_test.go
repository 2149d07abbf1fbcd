package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store/memory"
)

type captureMirror struct {
	mu      sync.Mutex
	entries []model.SecurityLogEntry
}

func (m *captureMirror) PublishSecurity(_ context.Context, e model.SecurityLogEntry) {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

func fixedNow() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

func TestAppend_CarriesClientSignals(t *testing.T) {
	st := memory.New()
	mirror := &captureMirror{}
	log := audit.New(st, zap.NewNop(), mirror, fixedNow)

	ctx := audit.WithClient(context.Background(), audit.ClientInfo{
		IPAddress: "10.0.0.7", UserAgent: "bingo-app/3.1", Location: "Addis Ababa", DeviceFingerprint: "fp-9",
	})
	e, err := log.Append(ctx, "alice", model.ActionWalletLocked, "manual lock", model.RiskHigh)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.Equal(t, "bingo-app/3.1", e.UserAgent)
	assert.Equal(t, "Addis Ababa", e.Location)
	assert.Equal(t, "fp-9", e.DeviceFingerprint)
	assert.Equal(t, fixedNow(), e.Timestamp)

	require.Len(t, mirror.entries, 1)
	assert.Equal(t, e, mirror.entries[0])
}

func TestRecord_RolledBackEntryIsNotMirrored(t *testing.T) {
	st := memory.New()
	mirror := &captureMirror{}
	log := audit.New(st, zap.NewNop(), mirror, fixedNow)

	err := st.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if _, err := log.Record(ctx, tx, "alice", model.ActionTransferApproved, "", model.RiskLow); err != nil {
			return err
		}
		return model.ErrInsufficientBalance
	})
	require.ErrorIs(t, err, model.ErrInsufficientBalance)

	assert.Empty(t, mirror.entries)
	logs, err := log.Query(context.Background(), "alice", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestQuery_NewestFirstAndPaged(t *testing.T) {
	st := memory.New()
	log := audit.New(st, zap.NewNop(), nil, fixedNow)
	ctx := context.Background()

	for _, action := range []string{model.ActionWalletCreated, model.ActionWalletLocked, model.ActionWalletUnlocked} {
		_, err := log.Append(ctx, "alice", action, "", model.RiskLow)
		require.NoError(t, err)
	}
	_, err := log.Append(ctx, "bob", model.ActionWalletCreated, "", model.RiskLow)
	require.NoError(t, err)

	page, err := log.Query(ctx, "alice", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, model.ActionWalletUnlocked, page[0].Action)
	assert.Equal(t, model.ActionWalletLocked, page[1].Action)

	rest, err := log.Query(ctx, "alice", 2, &store.Cursor{CreatedAt: page[1].Timestamp, ID: page[1].ID})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, model.ActionWalletCreated, rest[0].Action)

	all, err := log.Query(ctx, "", 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
