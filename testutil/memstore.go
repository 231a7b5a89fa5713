// Package testutil provides shared test fixtures, most importantly an
// in-memory services.Store that mirrors the conditional-write semantics of
// the DynamoDB implementation.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"soulmatch_server/models"
	"soulmatch_server/services"

	"github.com/google/uuid"
)

// MemStore implements services.Store in memory. All methods are safe for
// concurrent use so race-oriented tests can hammer it from goroutines.
type MemStore struct {
	mu          sync.Mutex
	profiles    map[string]models.Profile
	likes       map[string]models.Like
	connections map[string]models.Connection
	pairLocks   map[string]string
	messages    []models.Message
}

func NewMemStore() *MemStore {
	return &MemStore{
		profiles:    make(map[string]models.Profile),
		likes:       make(map[string]models.Like),
		connections: make(map[string]models.Connection),
		pairLocks:   make(map[string]string),
	}
}

func pairID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return "PAIR#" + userA + "#" + userB
}

func likeKey(likerID, likedID string) string {
	return likerID + "|" + likedID
}

func (s *MemStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, services.ErrNotFound)
	}
	return &p, nil
}

func (s *MemStore) PutProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *MemStore) UpdateProfileStatus(ctx context.Context, userID, status string, activeConnectionID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("profile %s: %w", userID, services.ErrNotFound)
	}
	p.Status = status
	if activeConnectionID != nil {
		p.ActiveConnectionID = *activeConnectionID
	} else {
		p.ActiveConnectionID = ""
	}
	s.profiles[userID] = p
	return nil
}

func (s *MemStore) UpdateProfileFields(ctx context.Context, userID string, updates map[string]string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, services.ErrNotFound)
	}
	for field, value := range updates {
		switch field {
		case "introText":
			p.IntroText = value
		case "photoUrl":
			p.PhotoURL = value
		case "preference":
			p.Preference = value
		case "gender":
			p.Gender = value
		case "emailId":
			p.EmailID = value
		default:
			return nil, fmt.Errorf("unknown profile field %q", field)
		}
	}
	s.profiles[userID] = p
	return &p, nil
}

func (s *MemStore) FindProfiles(ctx context.Context, filter services.ProfileFilter) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []models.Profile
	for _, id := range ids {
		p := s.profiles[id]
		if p.Status != filter.Status {
			continue
		}
		if filter.Gender != "" && p.Gender != filter.Gender {
			continue
		}
		if filter.ExcludeID != "" && p.UserID == filter.ExcludeID {
			continue
		}
		result = append(result, p)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func (s *MemStore) PoolCounts(ctx context.Context) (*models.PoolCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := &models.PoolCounts{}
	for _, p := range s.profiles {
		if p.Status != models.ProfileStatusInPool {
			continue
		}
		switch p.Gender {
		case models.GenderMale:
			counts.MaleCount++
		case models.GenderFemale:
			counts.FemaleCount++
		}
	}
	return counts, nil
}

func (s *MemStore) PutLike(ctx context.Context, likerID, likedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.likes[likeKey(likerID, likedID)] = models.Like{
		LikerID:   likerID,
		LikedID:   likedID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return nil
}

func (s *MemStore) GetLike(ctx context.Context, likerID, likedID string) (*models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	like, ok := s.likes[likeKey(likerID, likedID)]
	if !ok {
		return nil, fmt.Errorf("like %s->%s: %w", likerID, likedID, services.ErrNotFound)
	}
	return &like, nil
}

func (s *MemStore) DeleteLike(ctx context.Context, likerID, likedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.likes, likeKey(likerID, likedID))
	return nil
}

// LikeCount reports the number of stored like edges; the keying collapses
// repeated likes for the same ordered pair.
func (s *MemStore) LikeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes)
}

func (s *MemStore) CreateConnection(ctx context.Context, userA, userB string, mutualLike bool) (*models.Connection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockID := pairID(userA, userB)
	if winnerID, exists := s.pairLocks[lockID]; exists {
		winner, ok := s.connections[winnerID]
		if !ok {
			return nil, false, fmt.Errorf("pair lock vanished for %s: %w", lockID, services.ErrConflict)
		}
		return &winner, false, nil
	}

	conn := models.Connection{
		ID:         uuid.NewString(),
		UserAID:    userA,
		UserBID:    userB,
		Status:     models.ConnectionStatusPending,
		MutualLike: mutualLike,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	s.pairLocks[lockID] = conn.ID
	s.connections[conn.ID] = conn
	return &conn, true, nil
}

func (s *MemStore) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, fmt.Errorf("connection %s: %w", id, services.ErrNotFound)
	}
	return &conn, nil
}

func (s *MemStore) FindConnectionByParticipant(ctx context.Context, userID, status string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Connection
	for _, conn := range s.connections {
		if status != "" && conn.Status != status {
			continue
		}
		if conn.UserAID == userID || conn.UserBID == userID {
			matches = append(matches, conn)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("connection for %s: %w", userID, services.ErrNotFound)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CreatedAt == matches[j].CreatedAt {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt > matches[j].CreatedAt
	})
	return &matches[0], nil
}

func (s *MemStore) SetConfirmation(ctx context.Context, id string, sideA, value bool) (*models.Connection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, false, fmt.Errorf("connection %s: %w", id, services.ErrNotFound)
	}

	flag := &conn.BConfirm
	if sideA {
		flag = &conn.AConfirm
	}
	if conn.Status != models.ConnectionStatusPending || *flag != nil {
		// Condition rejected: the caller gets a fresh read instead.
		return &conn, false, nil
	}

	v := value
	*flag = &v
	s.connections[id] = conn
	return &conn, true, nil
}

func (s *MemStore) UpdateConnectionStatus(ctx context.Context, id, from, to string) (*models.Connection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, false, fmt.Errorf("connection %s: %w", id, services.ErrNotFound)
	}
	if conn.Status != from {
		if conn.Status == to {
			return &conn, false, nil
		}
		return &conn, false, fmt.Errorf("connection %s is %s, not %s: %w", id, conn.Status, from, services.ErrConflict)
	}

	conn.Status = to
	if to == models.ConnectionStatusEnded {
		conn.EndedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.connections[id] = conn
	return &conn, true, nil
}

func (s *MemStore) ReleasePair(ctx context.Context, userA, userB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairLocks, pairID(userA, userB))
	return nil
}

// ConnectionsForPair returns every connection record held for the two
// users, in no particular order.
func (s *MemStore) ConnectionsForPair(userA, userB string) []models.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Connection
	for _, conn := range s.connections {
		if (conn.UserAID == userA && conn.UserBID == userB) || (conn.UserAID == userB && conn.UserBID == userA) {
			result = append(result, conn)
		}
	}
	return result
}

func (s *MemStore) PutMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MemStore) ListMessages(ctx context.Context, connectionID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Message
	for _, m := range s.messages {
		if m.ConnectionID == connectionID {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SentAt == result[j].SentAt {
			return result[i].MessageID < result[j].MessageID
		}
		return result[i].SentAt < result[j].SentAt
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
