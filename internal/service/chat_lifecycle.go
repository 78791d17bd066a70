package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/errs"
	"chat-core/internal/observability"
	"chat-core/internal/permissions"
	"chat-core/internal/repositories"
)

const (
	chatCreatedSystemMessage  = "New chat created"
	chatArchivedSystemMessage = "Chat was archived"
)

// CreateChatInput describes a chat creation request. MemberIDs lists the
// invitees and must not include the creator.
type CreateChatInput struct {
	MemberIDs []string
	Name      string
}

// CreateChat validates and creates a chat. A single invitee makes a private
// chat, which cannot carry a name and is deduplicated against an existing
// private chat between the same two users. More invitees make a named group
// chat. Returns the chat id, which may be an existing one for private chats.
func (s *ChatService) CreateChat(ctx context.Context, actor Actor, input CreateChatInput) (string, error) {
	if actor.ID == "" {
		return "", errs.Unauthorized("unauthorized")
	}
	if len(input.MemberIDs) == 0 {
		return "", errs.BadRequest("at least one member is required")
	}

	allowed, err := s.caps.Can(ctx, capabilities.ActionCreate, capabilities.SubjectChat, capabilities.Context{})
	if err != nil {
		return "", errs.Internal(err)
	}
	if !allowed {
		return "", errs.Forbidden("chat creation is disabled")
	}

	seen := make(map[string]bool, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		if id == actor.ID {
			return "", errs.BadRequest("creator cannot be listed as a member")
		}
		if seen[id] {
			return "", errs.BadRequest("duplicate member: %s", id)
		}
		seen[id] = true
	}

	name := strings.TrimSpace(input.Name)
	private := len(input.MemberIDs) == 1
	if private && name != "" {
		return "", errs.BadRequest("private chats cannot be named")
	}
	if !private && name == "" {
		return "", errs.BadRequest("group chats require a name")
	}

	if private {
		existingID, found, err := s.chats.FindPrivateChat(ctx, actor.ID, input.MemberIDs[0])
		if err != nil {
			return "", errs.Internal(err)
		}
		if found {
			s.logger.Info("private chat already exists",
				zap.String("chat_id", existingID),
				zap.String("user_id", actor.ID))
			return existingID, nil
		}
	}

	chatID, err := s.chats.CreateChat(ctx, repositories.CreateChatParams{
		CreatorID:         actor.ID,
		MemberIDs:         input.MemberIDs,
		Name:              name,
		SystemMessageBody: chatCreatedSystemMessage,
	})
	if err != nil {
		return "", errs.Internal(err)
	}

	observability.IncChatCreated()
	_ = observability.PublishEvent(ctx, "chat.created",
		observability.NewEnvelope("chat_events", "chat_created", map[string]interface{}{
			"chat_id":    chatID,
			"creator_id": actor.ID,
			"private":    private,
		}), observability.BuildHeaders(actor.RequestID, ""))

	return chatID, nil
}

// RenameChat sets a new name on a chat. Any member-facing permission model
// is intentionally absent here; callers are trusted once authenticated.
func (s *ChatService) RenameChat(ctx context.Context, actor Actor, chatID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.BadRequest("name must not be empty")
	}

	if err := s.chats.Rename(ctx, chatID, name); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return errs.NotFound("chat not found")
		}
		return errs.Internal(err)
	}

	_ = observability.PublishEvent(ctx, "chat.renamed",
		observability.NewEnvelope("chat_events", "chat_renamed", map[string]interface{}{
			"chat_id": chatID,
			"name":    name,
			"user_id": actor.ID,
		}), observability.BuildHeaders(actor.RequestID, ""))

	return nil
}

// ArchiveChat archives a chat on behalf of an owner or admin member. A chat
// that is already archived is left untouched and the call succeeds, so
// concurrent archive requests write the archival side effects exactly once.
func (s *ChatService) ArchiveChat(ctx context.Context, actor Actor, chatID string) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return errs.NotFound("chat not found")
		}
		return errs.Internal(err)
	}

	memberships, err := s.chats.GetMemberships(ctx, chatID)
	if err != nil {
		return errs.Internal(err)
	}

	if !permissions.IsMember(actor.ID, memberships) {
		s.audit.Emit(ctx, "warn", "archive denied: not a member of chat "+chatID, actor.RequestID, &actor.ID)
		return errs.Forbidden("you are not a member of this chat")
	}
	if !permissions.CanArchive(actor.ID, memberships) {
		s.audit.Emit(ctx, "warn", "archive denied: insufficient permission in chat "+chatID, actor.RequestID, &actor.ID)
		return errs.Forbidden("you do not have permission to archive this chat")
	}

	archived, err := s.chats.Archive(ctx, chatID, actor.ID, chatArchivedSystemMessage)
	if err != nil {
		return errs.Internal(err)
	}
	if !archived {
		s.logger.Warn("chat already archived",
			zap.String("chat_id", chat.ID),
			zap.String("user_id", actor.ID))
		return nil
	}

	observability.IncChatArchived()
	if s.broadcaster != nil {
		s.broadcaster.BroadcastArchived(chatID)
	}
	_ = observability.PublishEvent(ctx, "chat.archived",
		observability.NewEnvelope("chat_events", "chat_archived", map[string]interface{}{
			"chat_id": chatID,
			"user_id": actor.ID,
		}), observability.BuildHeaders(actor.RequestID, ""))
	s.audit.Emit(ctx, "info", "chat "+chatID+" archived", actor.RequestID, &actor.ID)

	return nil
}
