package model

// Message types found in Messenger exports
const (
	MessageGeneric     = "Generic"
	MessageShare       = "Share"
	MessageCall        = "Call"
	MessageSubscribe   = "Subscribe"
	MessageUnsubscribe = "Unsubscribe"
)

// Reaction kinds
const (
	// ReactionCha is the "laughing" reaction counted as a cha by default.
	ReactionCha = "😆"
	// ReactionAny matches every reaction kind when used as a target.
	ReactionAny = ""
)

// ParticipantID identifies a participant within one registry. Ids are dense
// and allocated in first-seen order starting at zero.
type ParticipantID int
