package models

// Message belongs to exactly one connection and is immutable once stored.
type Message struct {
	MessageID    string `dynamodbav:"messageId" json:"messageId"`
	ConnectionID string `dynamodbav:"connectionId" json:"connectionId"`
	SenderID     string `dynamodbav:"senderId" json:"senderId"`
	Text         string `dynamodbav:"text" json:"text"`
	SentAt       string `dynamodbav:"sentAt" json:"sentAt"`
}

// MessagesTable is the DynamoDB table name for chat messages
const MessagesTable = "Messages"
