package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"soulmatch_server/models"
)

// ConnectionService drives a connection through the confirmation step and
// teardown.
type ConnectionService struct {
	Store Store
}

// Confirmation outcomes reported to the caller.
const (
	OutcomePending  = "pending"
	OutcomeChatting = "chatting"
	OutcomeEnded    = "ended"
)

// ConfirmResult reports what a confirmation submission resolved to.
// Applied is false when the caller's flag was already set and the
// submission was ignored.
type ConfirmResult struct {
	Outcome    string             `json:"outcome"`
	Applied    bool               `json:"applied"`
	Connection *models.Connection `json:"connection"`
}

// ActiveConnection finds a connection containing userID, optionally
// restricted to one status.
func (cs *ConnectionService) ActiveConnection(ctx context.Context, userID, status string) (*models.Connection, error) {
	return cs.Store.FindConnectionByParticipant(ctx, userID, status)
}

// GetConnection retrieves a connection by ID.
func (cs *ConnectionService) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	return cs.Store.GetConnection(ctx, id)
}

// Confirm records one side's interested/not-interested signal and resolves
// the connection. The flag is written at most once; repeats are ignored.
// Resolution is always re-derived from a fresh read of both flags, never
// from state cached before the write, so a concurrently-acting counterpart
// is observed.
func (cs *ConnectionService) Confirm(ctx context.Context, connectionID, userID string, interested bool) (*ConfirmResult, error) {
	conn, err := cs.Store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Contains(userID) {
		return nil, fmt.Errorf("user %s is not part of connection %s: %w", userID, connectionID, ErrNotFound)
	}

	switch conn.Status {
	case models.ConnectionStatusChatting:
		return &ConfirmResult{Outcome: OutcomeChatting, Connection: conn}, nil
	case models.ConnectionStatusEnded:
		return &ConfirmResult{Outcome: OutcomeEnded, Connection: conn}, nil
	}

	fresh, applied, err := cs.Store.SetConfirmation(ctx, connectionID, conn.IsSideA(userID), interested)
	if err != nil {
		return nil, err
	}

	outcome, err := cs.resolve(ctx, fresh)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Outcome: outcome, Applied: applied, Connection: fresh}, nil
}

// resolve applies the resolution rule to a freshly-read connection:
// any false flag ends it immediately, both true starts the chat, a single
// true flag keeps it pending.
func (cs *ConnectionService) resolve(ctx context.Context, conn *models.Connection) (string, error) {
	if conn.Status != models.ConnectionStatusPending {
		return conn.Status, nil
	}
	if conn.AConfirm == nil && conn.BConfirm == nil {
		log.Printf("Connection %s reached resolution with both flags unset", conn.ID)
		return "", fmt.Errorf("connection %s has no confirmation to resolve: %w", conn.ID, ErrInvariantViolation)
	}

	declined := (conn.AConfirm != nil && !*conn.AConfirm) || (conn.BConfirm != nil && !*conn.BConfirm)
	switch {
	case declined:
		if err := cs.endConnection(ctx, conn, models.ConnectionStatusPending); err != nil {
			return "", err
		}
		return OutcomeEnded, nil

	case conn.AConfirm != nil && conn.BConfirm != nil:
		// Both interested.
		if _, _, err := cs.Store.UpdateConnectionStatus(ctx, conn.ID, models.ConnectionStatusPending, models.ConnectionStatusChatting); err != nil {
			return "", err
		}
		for _, id := range []string{conn.UserAID, conn.UserBID} {
			if err := cs.Store.UpdateProfileStatus(ctx, id, models.ProfileStatusChatting, &conn.ID); err != nil {
				return "", err
			}
		}
		return OutcomeChatting, nil

	default:
		return OutcomePending, nil
	}
}

// End terminates an active chat at either participant's request. Ending an
// already-ended connection is a no-op.
func (cs *ConnectionService) End(ctx context.Context, connectionID, userID string) (*models.Connection, error) {
	conn, err := cs.Store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Contains(userID) {
		return nil, fmt.Errorf("user %s is not part of connection %s: %w", userID, connectionID, ErrNotFound)
	}
	if conn.Status == models.ConnectionStatusEnded {
		return conn, nil
	}
	if conn.Status != models.ConnectionStatusChatting {
		return nil, fmt.Errorf("connection %s is %s, only active chats can be ended: %w", connectionID, conn.Status, ErrConflict)
	}

	if err := cs.endConnection(ctx, conn, models.ConnectionStatusChatting); err != nil {
		return nil, err
	}
	return cs.Store.GetConnection(ctx, connectionID)
}

// endConnection moves the connection to its terminal state, releases the
// pair lock, and returns both profiles to the pool. The three writes are
// not transactional; every step is idempotent so a concurrent or repeated
// teardown converges on the same state.
func (cs *ConnectionService) endConnection(ctx context.Context, conn *models.Connection, from string) error {
	if _, _, err := cs.Store.UpdateConnectionStatus(ctx, conn.ID, from, models.ConnectionStatusEnded); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to end connection %s: %w", conn.ID, err)
	}
	if err := cs.Store.ReleasePair(ctx, conn.UserAID, conn.UserBID); err != nil {
		return fmt.Errorf("failed to release pair lock: %w", err)
	}
	// Clear the round's like edges so they cannot replay as a fresh mutual
	// like after both users return to the pool.
	for _, pair := range [][2]string{{conn.UserAID, conn.UserBID}, {conn.UserBID, conn.UserAID}} {
		if err := cs.Store.DeleteLike(ctx, pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to clear like ledger: %w", err)
		}
	}
	for _, id := range []string{conn.UserAID, conn.UserBID} {
		if err := cs.Store.UpdateProfileStatus(ctx, id, models.ProfileStatusInPool, nil); err != nil {
			return err
		}
	}
	return nil
}
