package services

import (
	"context"
	"fmt"
	"time"

	"soulmatch_server/models"

	"github.com/google/uuid"
)

// Notifier pushes events into a connection's live room. The socket.io
// server satisfies this.
type Notifier interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// ChatService appends and reads the transcript of a chatting connection.
type ChatService struct {
	Store    Store
	Notifier Notifier
}

// SendMessage stores a message and broadcasts it to the connection's room.
// Messages are only accepted while the connection is chatting; after
// teardown the transcript is closed.
func (s *ChatService) SendMessage(ctx context.Context, connectionID, senderID, text string) (*models.Message, error) {
	conn, err := s.Store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Contains(senderID) {
		return nil, fmt.Errorf("user %s is not part of connection %s: %w", senderID, connectionID, ErrNotFound)
	}
	if conn.Status != models.ConnectionStatusChatting {
		return nil, fmt.Errorf("connection %s is %s, chat is not active: %w", connectionID, conn.Status, ErrConflict)
	}

	msg := &models.Message{
		MessageID:    uuid.NewString(),
		ConnectionID: connectionID,
		SenderID:     senderID,
		Text:         text,
		SentAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.Store.PutMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if s.Notifier != nil {
		s.Notifier.BroadcastToRoom("/", connectionID, "newMessage", msg)
	}
	return msg, nil
}

// GetMessages returns the transcript in send order. Delivery from the store
// is at-least-once in practice, so duplicates are dropped by message ID.
func (s *ChatService) GetMessages(ctx context.Context, connectionID string, limit int) ([]models.Message, error) {
	messages, err := s.Store.ListMessages(ctx, connectionID, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(messages))
	deduped := messages[:0]
	for _, m := range messages {
		if seen[m.MessageID] {
			continue
		}
		seen[m.MessageID] = true
		deduped = append(deduped, m)
	}
	return deduped, nil
}
