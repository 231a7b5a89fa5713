package services_test

import (
	"context"
	"testing"

	"soulmatch_server/models"
	"soulmatch_server/services"
	"soulmatch_server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActionFixture(t *testing.T) (*testutil.MemStore, *services.ActionService) {
	t.Helper()
	store := testutil.NewMemStore()
	addProfile(t, store, "alice", models.GenderFemale, models.GenderMale, models.ProfileStatusInPool)
	addProfile(t, store, "bob", models.GenderMale, models.GenderFemale, models.ProfileStatusInPool)
	return store, &services.ActionService{Store: store}
}

func TestLikeWithoutReverse(t *testing.T) {
	store, as := newActionFixture(t)
	ctx := context.Background()

	result, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.ConnectionID)

	// The liker waits; no connection exists yet.
	alice, err := store.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInConnection, alice.Status)
	assert.Empty(t, alice.ActiveConnectionID)

	bob, err := store.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInPool, bob.Status, "target is unaffected by a one-sided like")

	assert.Empty(t, store.ConnectionsForPair("alice", "bob"))
}

func TestMutualLikeCreatesConnection(t *testing.T) {
	store, as := newActionFixture(t)
	ctx := context.Background()

	_, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)

	result, err := as.ProcessAction(ctx, "bob", "alice", "like")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotEmpty(t, result.ConnectionID)

	conns := store.ConnectionsForPair("alice", "bob")
	require.Len(t, conns, 1)
	conn := conns[0]
	assert.Equal(t, result.ConnectionID, conn.ID)
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)
	assert.True(t, conn.MutualLike)
	assert.Nil(t, conn.AConfirm)
	assert.Nil(t, conn.BConfirm)

	for _, id := range []string{"alice", "bob"} {
		p, err := store.GetProfile(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ProfileStatusInConnection, p.Status)
		assert.Equal(t, conn.ID, p.ActiveConnectionID)
	}
}

func TestSimultaneousMutualLikesShareOneConnection(t *testing.T) {
	store, as := newActionFixture(t)
	ctx := context.Background()

	// Seed both like edges first so each ProcessAction observes the
	// reverse like, the interleaving that races two connection creations.
	require.NoError(t, store.PutLike(ctx, "alice", "bob"))
	require.NoError(t, store.PutLike(ctx, "bob", "alice"))

	resA, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	resB, err := as.ProcessAction(ctx, "bob", "alice", "like")
	require.NoError(t, err)

	assert.True(t, resA.Matched)
	assert.True(t, resB.Matched)
	assert.Equal(t, resA.ConnectionID, resB.ConnectionID, "loser adopts the winner's connection")
	assert.Len(t, store.ConnectionsForPair("alice", "bob"), 1)
}

func TestRepeatedLikeStoresSingleEdge(t *testing.T) {
	store, as := newActionFixture(t)
	ctx := context.Background()

	_, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	_, err = as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)

	assert.Equal(t, 1, store.LikeCount())
}

func TestSkipChangesNothing(t *testing.T) {
	store, as := newActionFixture(t)
	ctx := context.Background()

	result, err := as.ProcessAction(ctx, "alice", "bob", "skip")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Zero(t, store.LikeCount())

	alice, err := store.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInPool, alice.Status)
}

func TestEndedRoundLikesDoNotReplay(t *testing.T) {
	store, as := newActionFixture(t)
	addProfile(t, store, "carol", models.GenderFemale, models.GenderMale, models.ProfileStatusInPool)
	cs := &services.ConnectionService{Store: store}
	ctx := context.Background()

	// Round one: alice and bob match, then alice declines.
	_, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	result, err := as.ProcessAction(ctx, "bob", "alice", "like")
	require.NoError(t, err)
	require.True(t, result.Matched)

	_, err = cs.Confirm(ctx, result.ConnectionID, "alice", false)
	require.NoError(t, err)
	assert.Zero(t, store.LikeCount(), "teardown clears the round's like edges")

	// Round two: bob pairs with carol.
	_, err = as.ProcessAction(ctx, "bob", "carol", "like")
	require.NoError(t, err)
	second, err := as.ProcessAction(ctx, "carol", "bob", "like")
	require.NoError(t, err)
	require.True(t, second.Matched)

	// Alice liking bob again must not resurrect the ended round.
	replay, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	assert.False(t, replay.Matched)

	bob, err := store.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, second.ConnectionID, bob.ActiveConnectionID, "bob stays in the carol round")

	live := 0
	for _, conn := range store.ConnectionsForPair("alice", "bob") {
		if conn.Status != models.ConnectionStatusEnded {
			live++
		}
	}
	assert.Zero(t, live, "no second live connection for the ended pair")
}

func TestMutualLikeHeldWhileTargetInAnotherRound(t *testing.T) {
	store, as := newActionFixture(t)
	addProfile(t, store, "carol", models.GenderFemale, models.GenderMale, models.ProfileStatusInPool)
	cs := &services.ConnectionService{Store: store}
	ctx := context.Background()

	// Bob likes alice, then pairs with carol first.
	_, err := as.ProcessAction(ctx, "bob", "alice", "like")
	require.NoError(t, err)
	_, err = as.ProcessAction(ctx, "bob", "carol", "like")
	require.NoError(t, err)
	match, err := as.ProcessAction(ctx, "carol", "bob", "like")
	require.NoError(t, err)
	require.True(t, match.Matched)

	// Alice's reciprocal like finds the edge but bob is mid-round: the like
	// is held instead of pulling bob into a second pending connection.
	held, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	assert.False(t, held.Matched)
	assert.Empty(t, store.ConnectionsForPair("alice", "bob"))

	bob, err := store.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, match.ConnectionID, bob.ActiveConnectionID)

	alice, err := store.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInConnection, alice.Status)
	assert.Empty(t, alice.ActiveConnectionID)

	// Once the carol round ends, the surviving likes pair them up.
	_, err = cs.Confirm(ctx, match.ConnectionID, "carol", false)
	require.NoError(t, err)
	matched, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	assert.True(t, matched.Matched)
}

func TestLikeWhileInPendingConnectionConflicts(t *testing.T) {
	store, as := newActionFixture(t)
	addProfile(t, store, "carol", models.GenderFemale, models.GenderMale, models.ProfileStatusInPool)
	ctx := context.Background()

	_, err := as.ProcessAction(ctx, "alice", "bob", "like")
	require.NoError(t, err)
	match, err := as.ProcessAction(ctx, "bob", "alice", "like")
	require.NoError(t, err)
	require.True(t, match.Matched)

	// Carol already likes alice, so alice acting now would be a mutual
	// match; a participant of a live connection cannot start another.
	require.NoError(t, store.PutLike(ctx, "carol", "alice"))
	_, err = as.ProcessAction(ctx, "alice", "carol", "like")
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestLikeValidation(t *testing.T) {
	_, as := newActionFixture(t)
	ctx := context.Background()

	_, err := as.ProcessAction(ctx, "alice", "alice", "like")
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = as.ProcessAction(ctx, "alice", "ghost", "like")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = as.ProcessAction(ctx, "alice", "bob", "poke")
	assert.Error(t, err)
}
