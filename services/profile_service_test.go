package services_test

import (
	"context"
	"fmt"
	"testing"

	"soulmatch_server/models"
	"soulmatch_server/services"
	"soulmatch_server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPool(t *testing.T, store *testutil.MemStore, males, females int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < males; i++ {
		err := store.PutProfile(ctx, &models.Profile{
			UserID:     fmt.Sprintf("male-%d", i),
			Gender:     models.GenderMale,
			Preference: models.GenderFemale,
			Status:     models.ProfileStatusInPool,
		})
		require.NoError(t, err)
	}
	for i := 0; i < females; i++ {
		err := store.PutProfile(ctx, &models.Profile{
			UserID:     fmt.Sprintf("female-%d", i),
			Gender:     models.GenderFemale,
			Preference: models.GenderMale,
			Status:     models.ProfileStatusInPool,
		})
		require.NoError(t, err)
	}
}

func TestCreateProfileAdmission(t *testing.T) {
	tests := []struct {
		name       string
		males      int
		females    int
		gender     string
		wantStatus string
	}{
		{"balanced pool admits male", 3, 3, models.GenderMale, models.ProfileStatusInPool},
		{"male surplus within threshold admits", 8, 3, models.GenderMale, models.ProfileStatusInPool},
		{"male surplus beyond threshold waitlists", 10, 3, models.GenderMale, models.ProfileStatusWaitlisted},
		{"female surplus beyond threshold waitlists", 2, 9, models.GenderFemale, models.ProfileStatusWaitlisted},
		{"opposite surplus does not waitlist", 10, 3, models.GenderFemale, models.ProfileStatusInPool},
		{"other gender always admits", 20, 0, models.GenderOther, models.ProfileStatusInPool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemStore()
			seedPool(t, store, tt.males, tt.females)
			ps := &services.ProfileService{Store: store}

			created, err := ps.CreateProfile(context.Background(), models.Profile{
				UserID:     "new-user",
				Gender:     tt.gender,
				Preference: models.GenderFemale,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, created.Status)
			assert.Empty(t, created.ActiveConnectionID)
			assert.NotEmpty(t, created.CreatedAt)

			stored, err := store.GetProfile(context.Background(), "new-user")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestCreateProfileDuplicate(t *testing.T) {
	store := testutil.NewMemStore()
	ps := &services.ProfileService{Store: store}

	_, err := ps.CreateProfile(context.Background(), models.Profile{
		UserID: "u1", Gender: models.GenderMale, Preference: models.GenderFemale,
	})
	require.NoError(t, err)

	_, err = ps.CreateProfile(context.Background(), models.Profile{
		UserID: "u1", Gender: models.GenderMale, Preference: models.GenderFemale,
	})
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestUpdateProfileProtectsLifecycleFields(t *testing.T) {
	store := testutil.NewMemStore()
	ps := &services.ProfileService{Store: store}

	_, err := ps.CreateProfile(context.Background(), models.Profile{
		UserID: "u1", Gender: models.GenderMale, Preference: models.GenderFemale,
	})
	require.NoError(t, err)

	updated, err := ps.UpdateProfile(context.Background(), "u1", map[string]string{
		"introText": "hello there",
		"status":    models.ProfileStatusChatting,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", updated.IntroText)
	assert.Equal(t, models.ProfileStatusInPool, updated.Status)

	_, err = ps.UpdateProfile(context.Background(), "u1", map[string]string{
		"status": models.ProfileStatusChatting,
	})
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestPromoteWaitlisted(t *testing.T) {
	store := testutil.NewMemStore()
	ctx := context.Background()
	seedPool(t, store, 10, 6)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.PutProfile(ctx, &models.Profile{
			UserID:     fmt.Sprintf("waitlisted-%d", i),
			Gender:     models.GenderMale,
			Preference: models.GenderFemale,
			Status:     models.ProfileStatusWaitlisted,
			CreatedAt:  fmt.Sprintf("2026-01-0%dT00:00:00Z", i+1),
		}))
	}
	ps := &services.ProfileService{Store: store}

	// 10m/6f: two promotions fit under the threshold (11>11 is false,
	// 12>11 is true).
	promoted, err := ps.PromoteWaitlisted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)

	first, err := store.GetProfile(ctx, "waitlisted-0")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInPool, first.Status, "oldest signup promoted first")

	last, err := store.GetProfile(ctx, "waitlisted-2")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusWaitlisted, last.Status)

	// Nothing else fits until the ratio recovers further.
	promoted, err = ps.PromoteWaitlisted(ctx)
	require.NoError(t, err)
	assert.Zero(t, promoted)
}

func TestPoolCounts(t *testing.T) {
	store := testutil.NewMemStore()
	seedPool(t, store, 4, 2)
	require.NoError(t, store.PutProfile(context.Background(), &models.Profile{
		UserID: "busy", Gender: models.GenderMale, Status: models.ProfileStatusChatting,
	}))
	ps := &services.ProfileService{Store: store}

	counts, err := ps.PoolCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts.MaleCount, "non-pool profiles are not counted")
	assert.Equal(t, 2, counts.FemaleCount)
}
