package models

import "time"

// ChatMembershipPermission is the role a member holds within a chat.
type ChatMembershipPermission string

const (
	PermissionOwner  ChatMembershipPermission = "OWNER"
	PermissionAdmin  ChatMembershipPermission = "ADMIN"
	PermissionMember ChatMembershipPermission = "MEMBER"
)

// Chat is a conversation. A chat with exactly two members (private chat) has an
// empty name; a chat with more members (group chat) has a non-empty one.
type Chat struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUpdate time.Time  `db:"last_update" json:"last_update"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`
}

// Archived reports whether the chat has been archived.
func (c Chat) Archived() bool {
	return c.ArchivedAt != nil
}

// ChatMembership links a user to a chat with a role. HasDeleted is a per-user
// local hide, independent of chat-wide archival.
type ChatMembership struct {
	ChatID     string                   `db:"chat_id" json:"chat_id"`
	UserID     string                   `db:"user_id" json:"user_id"`
	Permission ChatMembershipPermission `db:"permission" json:"permission"`
	HasDeleted bool                     `db:"has_deleted" json:"has_deleted"`
}

// Member is a membership joined with the user's profile row.
type Member struct {
	ChatMembership
	DisplayName string    `db:"display_name" json:"display_name"`
	LastSeen    time.Time `db:"last_seen" json:"last_seen"`
}

// ChatPreview is the per-chat projection returned by the chat list.
type ChatPreview struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	LastUpdate  time.Time      `json:"last_update"`
	Archived    bool           `json:"archived"`
	UnreadCount int            `json:"unread_count"`
	LastMessage MessagePreview `json:"last_message"`
}

// MemberDetail is the per-member projection in a chat detail view.
type MemberDetail struct {
	UserID      string                   `json:"user_id"`
	DisplayName string                   `json:"display_name"`
	Permission  ChatMembershipPermission `json:"permission"`
	IsOnline    bool                     `json:"is_online"`
}

// ChatDetail is the full single-chat projection.
type ChatDetail struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CreatedAt  time.Time      `json:"created_at"`
	LastUpdate time.Time      `json:"last_update"`
	Archived   bool           `json:"archived"`
	Members    []MemberDetail `json:"members"`
}

// ChatCapability is a per-chat override of a named capability. When no row
// exists the capability falls back to its subject policy's default.
type ChatCapability struct {
	ChatID     string `db:"chat_id" json:"chat_id"`
	Capability string `db:"capability" json:"capability"`
	Enabled    bool   `db:"enabled" json:"enabled"`
}
