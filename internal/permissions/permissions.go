// Package permissions holds the pure membership and role predicates. They
// operate on already-loaded membership rows and never query the store.
package permissions

import "chat-core/internal/models"

// Find returns the membership row for the given user, if any. Matching is a
// case-sensitive exact comparison of identifiers.
func Find(userID string, memberships []models.ChatMembership) (models.ChatMembership, bool) {
	for _, membership := range memberships {
		if membership.UserID == userID {
			return membership, true
		}
	}
	return models.ChatMembership{}, false
}

// IsMember reports whether the user holds a membership in the chat.
func IsMember(userID string, memberships []models.ChatMembership) bool {
	if len(memberships) == 0 {
		return false
	}
	_, ok := Find(userID, memberships)
	return ok
}

// CanArchive reports whether the user may archive the chat: they must be a
// member with the OWNER or ADMIN role.
func CanArchive(userID string, memberships []models.ChatMembership) bool {
	membership, ok := Find(userID, memberships)
	if !ok {
		return false
	}
	return membership.Permission == models.PermissionOwner || membership.Permission == models.PermissionAdmin
}
