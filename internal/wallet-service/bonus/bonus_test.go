package bonus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/testenv"
)

var units = testenv.Units

func TestProcessInvitation_GrantsEveryThreshold(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()

	res, err := env.Bonus.ProcessInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.Equal(t, 1, res.Counter.Count)

	res, err = env.Bonus.ProcessInvitation(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, 2, res.Counter.Count)
	assert.Equal(t, 1, res.Counter.RewardsGranted)
	assert.Equal(t, model.KindBonus, res.Bonus.Kind)
	assert.Equal(t, units(10), env.Balance(t, "alice"))

	res, err = env.Bonus.ProcessInvitation(ctx, "alice", "dave")
	require.NoError(t, err)
	assert.False(t, res.Granted)

	res, err = env.Bonus.ProcessInvitation(ctx, "alice", "erin")
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, 4, res.Counter.Count)
	assert.Equal(t, 2, res.Counter.RewardsGranted)
	assert.Equal(t, units(20), env.Balance(t, "alice"))
	assert.Contains(t, env.Actions(t, "alice"), model.ActionInvitationBonus)
}

func TestProcessInvitation_IsIdempotentPerPair(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()

	_, err := env.Bonus.ProcessInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = env.Bonus.ProcessInvitation(ctx, "alice", "bob")
	assert.ErrorIs(t, err, model.ErrDuplicate)

	res, err := env.Bonus.ProcessInvitation(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Counter.Count)
	assert.True(t, res.Granted)
}

func TestProcessInvitation_RejectsSelfInvite(t *testing.T) {
	env := testenv.New(t)
	_, err := env.Bonus.ProcessInvitation(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, model.ErrInvalidRecipient)
}
