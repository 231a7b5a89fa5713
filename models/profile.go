package models

// Profile defines the matching-pool record for a registered user.
// Status and ActiveConnectionID are mutated only by the lifecycle services.
type Profile struct {
	UserID             string `dynamodbav:"userId" json:"userId"`
	EmailID            string `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Gender             string `dynamodbav:"gender" json:"gender"`
	Preference         string `dynamodbav:"preference" json:"preference"`
	IntroText          string `dynamodbav:"introText,omitempty" json:"introText,omitempty"`
	PhotoURL           string `dynamodbav:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Status             string `dynamodbav:"status" json:"status"`
	ActiveConnectionID string `dynamodbav:"activeConnectionId,omitempty" json:"activeConnectionId,omitempty"`
	CreatedAt          string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// PoolCounts holds the in-pool head count per gender.
type PoolCounts struct {
	MaleCount   int `json:"maleCount"`
	FemaleCount int `json:"femaleCount"`
}

// ProfilesTable is the DynamoDB table name for profiles
const ProfilesTable = "Profiles"

// StatusGenderIndex is the GSI used for pool queries (status partition, gender sort)
const StatusGenderIndex = "StatusGenderIndex"
