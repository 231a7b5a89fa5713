package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"soulmatch_server/models"
	"soulmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ProfileFilter selects profiles by pool status and, optionally, gender.
type ProfileFilter struct {
	Status    string
	Gender    string
	ExcludeID string
	Limit     int
}

// Store is the data interface the lifecycle services run against. All race
// resolution relies on the conditional-write semantics documented per
// method; DynamoStore implements them with DynamoDB condition expressions
// and testutil provides an in-memory equivalent.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	PutProfile(ctx context.Context, profile *models.Profile) error
	// UpdateProfileStatus sets the lifecycle status; a nil activeConnectionID
	// clears the connection reference.
	UpdateProfileStatus(ctx context.Context, userID, status string, activeConnectionID *string) error
	UpdateProfileFields(ctx context.Context, userID string, updates map[string]string) (*models.Profile, error)
	FindProfiles(ctx context.Context, filter ProfileFilter) ([]models.Profile, error)
	PoolCounts(ctx context.Context) (*models.PoolCounts, error)

	PutLike(ctx context.Context, likerID, likedID string) error
	GetLike(ctx context.Context, likerID, likedID string) (*models.Like, error)
	// DeleteLike removes one directed like edge; a missing edge is not an
	// error.
	DeleteLike(ctx context.Context, likerID, likedID string) error

	// CreateConnection creates the single live connection for the unordered
	// pair, first write wins. created=false means a concurrent creator won
	// and its connection is returned instead.
	CreateConnection(ctx context.Context, userA, userB string, mutualLike bool) (conn *models.Connection, created bool, err error)
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	// FindConnectionByParticipant returns a connection containing userID,
	// optionally restricted to a status ("" matches any non-lock record).
	FindConnectionByParticipant(ctx context.Context, userID, status string) (*models.Connection, error)
	// SetConfirmation writes one side's flag at most once. applied=false
	// means the flag was already set; the returned connection is always a
	// fresh post-write read.
	SetConfirmation(ctx context.Context, id string, sideA, value bool) (conn *models.Connection, applied bool, err error)
	// UpdateConnectionStatus is a compare-and-swap from -> to. applied=false
	// with a nil error means another writer already moved it to the same
	// target; any other losing swap returns ErrConflict.
	UpdateConnectionStatus(ctx context.Context, id, from, to string) (conn *models.Connection, applied bool, err error)
	// ReleasePair deletes the pair lock so the two users may match again.
	ReleasePair(ctx context.Context, userA, userB string) error

	PutMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns up to limit messages ordered by send time.
	ListMessages(ctx context.Context, connectionID string, limit int) ([]models.Message, error)
}

// pairID is the deterministic lock key for an unordered user pair.
func pairID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return "PAIR#" + userA + "#" + userB
}

// DynamoStore implements Store on DynamoDB.
type DynamoStore struct {
	Dynamo *DynamoService
}

func NewDynamoStore(dynamo *DynamoService) *DynamoStore {
	return &DynamoStore{Dynamo: dynamo}
}

func (s *DynamoStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.ProfilesTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (s *DynamoStore) PutProfile(ctx context.Context, profile *models.Profile) error {
	return s.Dynamo.PutItem(ctx, models.ProfilesTable, profile)
}

func (s *DynamoStore) UpdateProfileStatus(ctx context.Context, userID, status string, activeConnectionID *string) error {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: status},
	}

	updateExpression := "SET #status = :status"
	if activeConnectionID != nil {
		updateExpression = "SET #status = :status, activeConnectionId = :conn"
		values[":conn"] = &types.AttributeValueMemberS{Value: *activeConnectionID}
	} else {
		updateExpression += " REMOVE activeConnectionId"
	}

	_, err := s.Dynamo.UpdateItem(ctx, models.ProfilesTable, updateExpression, key, values, names)
	return err
}

func (s *DynamoStore) UpdateProfileFields(ctx context.Context, userID string, updates map[string]string) (*models.Profile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	updateExpression := "SET"
	values := make(map[string]types.AttributeValue)
	names := make(map[string]string)
	for i, f := range fields {
		if i > 0 {
			updateExpression += ","
		}
		updateExpression += fmt.Sprintf(" #%s = :%s", f, f)
		names["#"+f] = f
		values[":"+f] = &types.AttributeValueMemberS{Value: updates[f]}
	}

	item, err := s.Dynamo.UpdateItem(ctx, models.ProfilesTable, updateExpression, key, values, names)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (s *DynamoStore) FindProfiles(ctx context.Context, filter ProfileFilter) ([]models.Profile, error) {
	keyCondition := "#status = :status"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: filter.Status},
	}
	names := map[string]string{"#status": "status"}
	if filter.Gender != "" {
		keyCondition += " AND gender = :gender"
		values[":gender"] = &types.AttributeValueMemberS{Value: filter.Gender}
	}

	// Page size leaves headroom for the client-side exclusion below.
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ProfilesTable, models.StatusGenderIndex, keyCondition, values, names, 100)
	if err != nil {
		return nil, err
	}

	var all []models.Profile
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}

	var profiles []models.Profile
	for _, p := range all {
		if filter.ExcludeID != "" && p.UserID == filter.ExcludeID {
			continue
		}
		profiles = append(profiles, p)
		if filter.Limit > 0 && len(profiles) >= filter.Limit {
			break
		}
	}
	return profiles, nil
}

func (s *DynamoStore) PoolCounts(ctx context.Context) (*models.PoolCounts, error) {
	keyCondition := "#status = :status"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: models.ProfileStatusInPool},
	}
	names := map[string]string{"#status": "status"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ProfilesTable, models.StatusGenderIndex, keyCondition, values, names, 1000)
	if err != nil {
		return nil, err
	}

	counts := &models.PoolCounts{}
	for _, item := range items {
		switch utils.ExtractString(item, "gender") {
		case models.GenderMale:
			counts.MaleCount++
		case models.GenderFemale:
			counts.FemaleCount++
		}
	}
	return counts, nil
}

func (s *DynamoStore) PutLike(ctx context.Context, likerID, likedID string) error {
	like := models.Like{
		LikerID:   likerID,
		LikedID:   likedID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s.Dynamo.PutItem(ctx, models.LikesTable, like)
}

func (s *DynamoStore) GetLike(ctx context.Context, likerID, likedID string) (*models.Like, error) {
	key := map[string]types.AttributeValue{
		"likerId": &types.AttributeValueMemberS{Value: likerID},
		"likedId": &types.AttributeValueMemberS{Value: likedID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.LikesTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("like %s->%s: %w", likerID, likedID, ErrNotFound)
	}

	var like models.Like
	if err := attributevalue.UnmarshalMap(item, &like); err != nil {
		return nil, fmt.Errorf("failed to unmarshal like: %w", err)
	}
	return &like, nil
}

func (s *DynamoStore) DeleteLike(ctx context.Context, likerID, likedID string) error {
	key := map[string]types.AttributeValue{
		"likerId": &types.AttributeValueMemberS{Value: likerID},
		"likedId": &types.AttributeValueMemberS{Value: likedID},
	}
	return s.Dynamo.DeleteItem(ctx, models.LikesTable, key)
}

// pairLock is the auxiliary item that makes connection creation first-write-
// wins. It shares the Connections table, keyed by the sorted pair.
type pairLock struct {
	ID           string `dynamodbav:"id"`
	ConnectionID string `dynamodbav:"connectionId"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

func (s *DynamoStore) CreateConnection(ctx context.Context, userA, userB string, mutualLike bool) (*models.Connection, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	conn := &models.Connection{
		ID:         uuid.NewString(),
		UserAID:    userA,
		UserBID:    userB,
		Status:     models.ConnectionStatusPending,
		MutualLike: mutualLike,
		CreatedAt:  now,
	}

	lock := pairLock{ID: pairID(userA, userB), ConnectionID: conn.ID, CreatedAt: now}
	err := s.Dynamo.PutItemWithCondition(ctx, models.ConnectionsTable, lock, "attribute_not_exists(id)", nil)
	if err == ErrConditionFailed {
		// Lost the race: adopt whichever connection took the lock.
		key := map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: lock.ID},
		}
		item, getErr := s.Dynamo.GetItem(ctx, models.ConnectionsTable, key)
		if getErr != nil {
			return nil, false, getErr
		}
		if item == nil {
			return nil, false, fmt.Errorf("pair lock vanished for %s: %w", lock.ID, ErrConflict)
		}
		winner, getErr := s.GetConnection(ctx, utils.ExtractString(item, "connectionId"))
		if getErr != nil {
			return nil, false, fmt.Errorf("adopting winning connection: %w", getErr)
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.Dynamo.PutItem(ctx, models.ConnectionsTable, conn); err != nil {
		return nil, false, err
	}
	return conn, true, nil
}

func (s *DynamoStore) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
	item, err := s.Dynamo.GetItem(ctx, models.ConnectionsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}

	var conn models.Connection
	if err := attributevalue.UnmarshalMap(item, &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &conn, nil
}

func (s *DynamoStore) FindConnectionByParticipant(ctx context.Context, userID, status string) (*models.Connection, error) {
	var conns []models.Connection
	err := s.Dynamo.ScanWithFilter(ctx, models.ConnectionsTable, func(item map[string]types.AttributeValue) bool {
		// Pair locks share the table and carry no status attribute.
		itemStatus := utils.ExtractString(item, "status")
		if itemStatus == "" {
			return false
		}
		if status != "" && itemStatus != status {
			return false
		}
		return utils.ExtractString(item, "userAId") == userID || utils.ExtractString(item, "userBId") == userID
	}, nil, &conns)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, fmt.Errorf("connection for %s: %w", userID, ErrNotFound)
	}

	// Prefer the newest record when history exists.
	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].CreatedAt > conns[j].CreatedAt
	})
	return &conns[0], nil
}

func (s *DynamoStore) SetConfirmation(ctx context.Context, id string, sideA, value bool) (*models.Connection, bool, error) {
	field := "bConfirm"
	if sideA {
		field = "aConfirm"
	}

	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
	values := map[string]types.AttributeValue{
		":v":       &types.AttributeValueMemberBOOL{Value: value},
		":pending": &types.AttributeValueMemberS{Value: models.ConnectionStatusPending},
	}
	names := map[string]string{"#status": "status"}

	item, err := s.Dynamo.UpdateItemWithCondition(ctx, models.ConnectionsTable,
		"SET "+field+" = :v", key, values, names,
		"attribute_not_exists("+field+") AND #status = :pending")
	if err == ErrConditionFailed {
		// Flag already set, or the connection left pending concurrently; a
		// fresh read stands in for the rejected write.
		conn, getErr := s.GetConnection(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		return conn, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var conn models.Connection
	if err := attributevalue.UnmarshalMap(item, &conn); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &conn, true, nil
}

func (s *DynamoStore) UpdateConnectionStatus(ctx context.Context, id, from, to string) (*models.Connection, bool, error) {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: to},
		":from": &types.AttributeValueMemberS{Value: from},
	}

	updateExpression := "SET #status = :to"
	if to == models.ConnectionStatusEnded {
		updateExpression = "SET #status = :to, endedAt = :endedAt"
		values[":endedAt"] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)}
	}

	item, err := s.Dynamo.UpdateItemWithCondition(ctx, models.ConnectionsTable,
		updateExpression, key, values, names, "#status = :from")
	if err == ErrConditionFailed {
		conn, getErr := s.GetConnection(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		if conn.Status == to {
			// A concurrent resolver already applied the same transition.
			return conn, false, nil
		}
		return conn, false, fmt.Errorf("connection %s is %s, not %s: %w", id, conn.Status, from, ErrConflict)
	}
	if err != nil {
		return nil, false, err
	}

	var conn models.Connection
	if err := attributevalue.UnmarshalMap(item, &conn); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &conn, true, nil
}

func (s *DynamoStore) ReleasePair(ctx context.Context, userA, userB string) error {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: pairID(userA, userB)},
	}
	return s.Dynamo.DeleteItem(ctx, models.ConnectionsTable, key)
}

func (s *DynamoStore) PutMessage(ctx context.Context, msg *models.Message) error {
	return s.Dynamo.PutItem(ctx, models.MessagesTable, msg)
}

func (s *DynamoStore) ListMessages(ctx context.Context, connectionID string, limit int) ([]models.Message, error) {
	keyCondition := "connectionId = :connectionId"
	values := map[string]types.AttributeValue{
		":connectionId": &types.AttributeValueMemberS{Value: connectionID},
	}

	items, err := s.Dynamo.QueryItems(ctx, models.MessagesTable, keyCondition, values, nil, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	// The table sort key is messageId, so order by send time here.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].SentAt == messages[j].SentAt {
			return messages[i].MessageID < messages[j].MessageID
		}
		return messages[i].SentAt < messages[j].SentAt
	})
	return messages, nil
}
