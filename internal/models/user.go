package models

import "time"

// OnlineWindow is how recently a user must have pinged to count as online.
const OnlineWindow = 30 * time.Second

// User is a chat participant. Identifiers are stable external UUIDs issued by
// the authentication provider; rows are created on first authenticated contact.
type User struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	LastSeen    time.Time `db:"last_seen" json:"last_seen"`
}

// IsOnline reports whether the user pinged within the online window.
func (u User) IsOnline(now time.Time) bool {
	return now.Sub(u.LastSeen) <= OnlineWindow
}
