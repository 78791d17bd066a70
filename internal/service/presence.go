package service

import (
	"context"
	"errors"
	"time"

	"chat-core/internal/errs"
	"chat-core/internal/repositories"
)

// OnlinePing refreshes the caller's last-seen timestamp. It never creates a
// user row: a ping from an identity the store has not seen yet is rejected.
func (s *ChatService) OnlinePing(ctx context.Context, actor Actor) error {
	if actor.ID == "" {
		return errs.Unauthorized("unauthorized")
	}

	err := s.users.TouchLastSeen(ctx, actor.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return errs.Unauthorized("unknown user")
		}
		return errs.Internal(err)
	}
	return nil
}
