package models

import "time"

// Message is a direct message between two members. Content is ciphertext
// produced by the sending client and is never interpreted by the server.
type Message struct {
	ID                int64
	SenderID          string
	SenderUsername    string
	RecipientID       string
	RecipientUsername string
	Content           string
	DateRead          *time.Time
	MessageSent       time.Time
	SenderDeleted     bool
	RecipientDeleted  bool

	SenderPhotoURL    string
	RecipientPhotoURL string
}

// Message containers.
const (
	ContainerUnread = "Unread"
	ContainerInbox  = "Inbox"
	ContainerOutbox = "Outbox"
)

// MessageFilter selects one page of a user's messages.
type MessageFilter struct {
	Username   string
	Container  string
	PageNumber int
	PageSize   int
}
