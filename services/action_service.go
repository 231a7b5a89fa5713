package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"soulmatch_server/models"
)

// ActionService records like/skip decisions and detects mutual matches.
type ActionService struct {
	Store Store
}

// ActionResult is returned for every like/skip.
type ActionResult struct {
	Message      string `json:"message"`
	Matched      bool   `json:"matched"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// ProcessAction handles "like" and "skip" actions from userID toward
// targetUserID.
func (as *ActionService) ProcessAction(ctx context.Context, userID, targetUserID, action string) (*ActionResult, error) {
	switch action {
	case "like":
		return as.handleLike(ctx, userID, targetUserID)
	case "skip":
		// A skip changes no state; the client simply requests the next
		// candidate again.
		return &ActionResult{Message: "Skipped"}, nil
	default:
		return nil, errors.New("invalid action")
	}
}

// handleLike records the like and checks for the reverse edge. A mutual
// like creates the pair's single pending connection; one-sided likes leave
// the acting user waiting in in_connection with no connection reference.
// A target already inside another live round is never pulled into a second
// one: the like is held until their current connection ends.
func (as *ActionService) handleLike(ctx context.Context, userID, targetUserID string) (*ActionResult, error) {
	if userID == targetUserID {
		return nil, fmt.Errorf("cannot like yourself: %w", ErrConflict)
	}
	liker, err := as.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := as.Store.GetProfile(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := as.Store.PutLike(ctx, userID, targetUserID); err != nil {
		return nil, fmt.Errorf("failed to record like: %w", err)
	}

	_, err = as.Store.GetLike(ctx, targetUserID, userID)
	if errors.Is(err, ErrNotFound) {
		return as.waitForCounterpart(ctx, liker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check reverse like: %w", err)
	}

	// Mutual like. Before creating a connection, honor existing connection
	// references: each user holds at most one live connection at a time.
	if liker.ActiveConnectionID != "" {
		existing, err := as.Store.GetConnection(ctx, liker.ActiveConnectionID)
		if err != nil {
			return nil, err
		}
		if existing.Contains(targetUserID) {
			// The counterpart's like landed first; this is that same match.
			return matchResult(existing.ID), nil
		}
		return nil, fmt.Errorf("user %s already has an active connection: %w", userID, ErrConflict)
	}
	if target.ActiveConnectionID != "" {
		existing, err := as.Store.GetConnection(ctx, target.ActiveConnectionID)
		if err != nil {
			return nil, err
		}
		if existing.Contains(userID) {
			return matchResult(existing.ID), nil
		}
		// Target is mid-round with someone else; hold the like.
		return as.waitForCounterpart(ctx, liker)
	}

	conn, created, err := as.Store.CreateConnection(ctx, userID, targetUserID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	if !created {
		log.Printf("Adopted existing connection %s for pair (%s, %s)", conn.ID, userID, targetUserID)
	}

	// Point both profiles at the connection. When an adopted connection has
	// already resolved, skip the writes so a stale loser of the creation
	// race cannot regress the profiles.
	if conn.Status == models.ConnectionStatusPending {
		for _, id := range []string{conn.UserAID, conn.UserBID} {
			if err := as.Store.UpdateProfileStatus(ctx, id, models.ProfileStatusInConnection, &conn.ID); err != nil {
				return nil, err
			}
		}
	}

	return matchResult(conn.ID), nil
}

// waitForCounterpart moves an in-pool liker to the waiting state. A liker
// already waiting (or otherwise mid-lifecycle) keeps their current state so
// a held like never clobbers a connection reference.
func (as *ActionService) waitForCounterpart(ctx context.Context, liker *models.Profile) (*ActionResult, error) {
	if liker.Status == models.ProfileStatusInPool {
		if err := as.Store.UpdateProfileStatus(ctx, liker.UserID, models.ProfileStatusInConnection, nil); err != nil {
			return nil, err
		}
	}
	return &ActionResult{Message: "Like sent, waiting for their response"}, nil
}

func matchResult(connectionID string) *ActionResult {
	return &ActionResult{
		Message:      "It's a match!",
		Matched:      true,
		ConnectionID: connectionID,
	}
}
