package models

// Profile lifecycle statuses
const (
	ProfileStatusInPool       = "in_pool"
	ProfileStatusInConnection = "in_connection"
	ProfileStatusWaitlisted   = "waitlisted"
	ProfileStatusChatting     = "chatting"
)

// Connection statuses
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusChatting = "chatting"
	ConnectionStatusEnded    = "ended"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// PoolImbalanceThreshold is how far one gender may outnumber the other in
// the pool before new signups of that gender are waitlisted.
const PoolImbalanceThreshold = 5
