package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"soulmatch_server/models"
)

// ProfileService owns profile creation (pool admission) and waitlist
// promotion.
type ProfileService struct {
	Store Store
}

// CreateProfile admits a new profile into the pool or waitlists it when the
// new user's gender already outnumbers the opposite gender by more than
// models.PoolImbalanceThreshold. The ratio read and the profile write are
// separate operations; concurrent signups can briefly overshoot the
// threshold and that is accepted.
func (ps *ProfileService) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	if _, err := ps.Store.GetProfile(ctx, profile.UserID); err == nil {
		return nil, fmt.Errorf("profile %s already exists: %w", profile.UserID, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	counts, err := ps.Store.PoolCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool counts: %w", err)
	}

	profile.Status = admissionStatus(profile.Gender, counts)
	profile.ActiveConnectionID = ""
	profile.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := ps.Store.PutProfile(ctx, &profile); err != nil {
		return nil, err
	}

	log.Printf("Profile %s created with status %s (pool %d male / %d female)",
		profile.UserID, profile.Status, counts.MaleCount, counts.FemaleCount)
	return &profile, nil
}

// admissionStatus applies the pool-balance rule. Only male/female counts
// participate in the ratio; "other" always enters the pool.
func admissionStatus(gender string, counts *models.PoolCounts) string {
	switch gender {
	case models.GenderMale:
		if counts.MaleCount > counts.FemaleCount+models.PoolImbalanceThreshold {
			return models.ProfileStatusWaitlisted
		}
	case models.GenderFemale:
		if counts.FemaleCount > counts.MaleCount+models.PoolImbalanceThreshold {
			return models.ProfileStatusWaitlisted
		}
	}
	return models.ProfileStatusInPool
}

// GetProfile retrieves a profile by user ID.
func (ps *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return ps.Store.GetProfile(ctx, userID)
}

// lifecycle fields are owned by the engine and not patchable from outside
var protectedProfileFields = map[string]bool{
	"userId":             true,
	"status":             true,
	"activeConnectionId": true,
	"createdAt":          true,
}

// UpdateProfile patches user-editable profile fields.
func (ps *ProfileService) UpdateProfile(ctx context.Context, userID string, updates map[string]string) (*models.Profile, error) {
	filtered := make(map[string]string, len(updates))
	for field, value := range updates {
		if protectedProfileFields[field] {
			continue
		}
		filtered[field] = value
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no updatable fields in request: %w", ErrConflict)
	}

	if _, err := ps.Store.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	return ps.Store.UpdateProfileFields(ctx, userID, filtered)
}

// PoolCounts reports the in-pool head count per gender.
func (ps *ProfileService) PoolCounts(ctx context.Context) (*models.PoolCounts, error) {
	return ps.Store.PoolCounts(ctx)
}

// PromoteWaitlisted re-evaluates every waitlisted profile against fresh pool
// counts and moves it to in_pool once admission would succeed, oldest
// signups first. Returns the number promoted.
func (ps *ProfileService) PromoteWaitlisted(ctx context.Context) (int, error) {
	counts, err := ps.Store.PoolCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read pool counts: %w", err)
	}

	waitlisted, err := ps.Store.FindProfiles(ctx, ProfileFilter{Status: models.ProfileStatusWaitlisted})
	if err != nil {
		return 0, fmt.Errorf("failed to list waitlist: %w", err)
	}
	sort.SliceStable(waitlisted, func(i, j int) bool {
		return waitlisted[i].CreatedAt < waitlisted[j].CreatedAt
	})

	promoted := 0
	for _, p := range waitlisted {
		if admissionStatus(p.Gender, counts) != models.ProfileStatusInPool {
			continue
		}
		if err := ps.Store.UpdateProfileStatus(ctx, p.UserID, models.ProfileStatusInPool, nil); err != nil {
			return promoted, err
		}
		switch p.Gender {
		case models.GenderMale:
			counts.MaleCount++
		case models.GenderFemale:
			counts.FemaleCount++
		}
		promoted++
	}
	return promoted, nil
}

// RunWaitlistReconciler promotes waitlisted profiles on a fixed interval
// until ctx is cancelled.
func (ps *ProfileService) RunWaitlistReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			promoted, err := ps.PromoteWaitlisted(ctx)
			if err != nil {
				log.Printf("Waitlist reconcile failed: %v", err)
				continue
			}
			if promoted > 0 {
				log.Printf("Promoted %d profile(s) from the waitlist", promoted)
			}
		}
	}
}
