package services

import (
	"context"
	"fmt"

	"soulmatch_server/models"
)

// MatchService picks the single candidate shown to an in-pool user.
type MatchService struct {
	Store Store
}

// NextCandidate returns one in-pool profile matching the user's preference,
// excluding the user itself. Selection is arbitrary among eligible
// candidates and a skip simply re-queries, so the same candidate may come
// back. An empty pool returns (nil, nil): "no candidate" is a normal state,
// not an error.
func (ms *MatchService) NextCandidate(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := ms.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Status != models.ProfileStatusInPool {
		return nil, fmt.Errorf("user %s is %s, not in the pool: %w", userID, profile.Status, ErrConflict)
	}

	candidates, err := ms.Store.FindProfiles(ctx, ProfileFilter{
		Status:    models.ProfileStatusInPool,
		Gender:    profile.Preference,
		ExcludeID: userID,
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}
