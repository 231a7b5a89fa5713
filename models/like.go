package models

// Like is a directed edge in the like ledger. The table is keyed
// (likerId, likedId), so repeating a like overwrites the same item.
type Like struct {
	LikerID   string `dynamodbav:"likerId" json:"likerId"`
	LikedID   string `dynamodbav:"likedId" json:"likedId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// LikesTable is the DynamoDB table name for likes
const LikesTable = "Likes"
