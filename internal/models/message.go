package models

import "time"

// MessageType discriminates user-authored messages from system-generated ones.
type MessageType string

const (
	UserMessage   MessageType = "USER_MESSAGE"
	SystemMessage MessageType = "SYSTEM_MESSAGE"
)

// MessageEventKind is an append-only fact about a message's delivery
// lifecycle. The USER_* kinds are recipient-scoped variants recorded per user.
type MessageEventKind string

const (
	EventCreated      MessageEventKind = "CREATED"
	EventStored       MessageEventKind = "STORED"
	EventReceived     MessageEventKind = "RECEIVED"
	EventRead         MessageEventKind = "READ"
	EventUserReceived MessageEventKind = "USER_RECEIVED"
	EventUserRead     MessageEventKind = "USER_READ"
)

// ReportedStatus is the coarse delivery status a client reports for a message.
type ReportedStatus string

const (
	StatusDelivered ReportedStatus = "DELIVERED"
	StatusRead      ReportedStatus = "READ"
)

// Message is a chat message. SenderID is nil for system-generated messages.
// Content lives in versioned MessageContent rows; the message row itself is
// immutable once written.
type Message struct {
	ID        string      `db:"id" json:"id"`
	ChatID    string      `db:"chat_id" json:"chat_id"`
	SenderID  *string     `db:"sender_id" json:"sender_id,omitempty"`
	Type      MessageType `db:"type" json:"type"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// MessageContent is one revision of a message's content. Edits append a new
// revision; the highest revision is the visible content.
type MessageContent struct {
	ID        string    `db:"id" json:"id"`
	MessageID string    `db:"message_id" json:"message_id"`
	Revision  int       `db:"revision" json:"revision"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageEvent is one append-only delivery fact. UserID is set for
// recipient-scoped events and nil for server-side ones.
type MessageEvent struct {
	ID        string           `db:"id" json:"id"`
	MessageID string           `db:"message_id" json:"message_id"`
	Kind      MessageEventKind `db:"kind" json:"kind"`
	UserID    *string          `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// MessageRecord bundles a message with its latest content revision and its
// event log, as loaded from the store.
type MessageRecord struct {
	Message
	Body     string         `db:"body" json:"body"`
	Revision int            `db:"revision" json:"revision"`
	Events   []MessageEvent `json:"events,omitempty"`
}

// ChatMessage is the message projection returned to callers, with the status
// already derived from the event log.
type ChatMessage struct {
	ID        string           `json:"id"`
	ChatID    string           `json:"chat_id"`
	SenderID  *string          `json:"sender_id,omitempty"`
	Type      MessageType      `json:"type"`
	Body      string           `json:"body"`
	Revision  int              `json:"revision"`
	Status    MessageEventKind `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// MessagePreview is the trailing-message projection in a chat list entry.
type MessagePreview struct {
	ID        string           `json:"id"`
	Body      string           `json:"body"`
	SenderID  *string          `json:"sender_id,omitempty"`
	Status    MessageEventKind `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type      string           `json:"type"`
	Message   *ChatMessage     `json:"message,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	Status    MessageEventKind `json:"status,omitempty"`
}
