package models

// Connection is one candidate pairing under confirmation or in active chat.
// AConfirm/BConfirm are nil until the respective side has responded.
type Connection struct {
	ID         string `dynamodbav:"id" json:"id"`
	UserAID    string `dynamodbav:"userAId" json:"userAId"`
	UserBID    string `dynamodbav:"userBId" json:"userBId"`
	Status     string `dynamodbav:"status" json:"status"`
	AConfirm   *bool  `dynamodbav:"aConfirm,omitempty" json:"aConfirm"`
	BConfirm   *bool  `dynamodbav:"bConfirm,omitempty" json:"bConfirm"`
	MutualLike bool   `dynamodbav:"mutualLike" json:"mutualLike"`
	CreatedAt  string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	EndedAt    string `dynamodbav:"endedAt,omitempty" json:"endedAt,omitempty"`
}

// Contains reports whether userID is one of the two participants.
func (c *Connection) Contains(userID string) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// IsSideA reports whether userID occupies the "A" slot.
func (c *Connection) IsSideA(userID string) bool {
	return c.UserAID == userID
}

// OtherParticipant returns the counterpart of userID, or "" if userID is
// not a participant.
func (c *Connection) OtherParticipant(userID string) string {
	switch userID {
	case c.UserAID:
		return c.UserBID
	case c.UserBID:
		return c.UserAID
	}
	return ""
}

// ConnectionsTable is the DynamoDB table name for connections and pair locks
const ConnectionsTable = "Connections"
