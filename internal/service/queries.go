package service

import (
	"context"
	"errors"
	"time"

	"chat-core/internal/capabilities"
	"chat-core/internal/errs"
	"chat-core/internal/models"
	"chat-core/internal/permissions"
	"chat-core/internal/repositories"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// ListChats returns the caller's chats ordered by recency, each with its
// resolved name, unread count, and latest message. The caller's profile is
// upserted first so their display name is fresh for other members.
func (s *ChatService) ListChats(ctx context.Context, actor Actor) ([]models.ChatPreview, error) {
	if actor.ID == "" {
		return nil, errs.Unauthorized("unauthorized")
	}

	if _, err := s.users.Upsert(ctx, models.User{
		ID:          actor.ID,
		DisplayName: actor.Name,
		LastSeen:    time.Now().UTC(),
	}); err != nil {
		return nil, errs.Internal(err)
	}

	chats, err := s.chats.ListChatsForUser(ctx, actor.ID)
	if err != nil {
		return nil, errs.Internal(err)
	}

	previews := make([]models.ChatPreview, 0, len(chats))
	for _, chat := range chats {
		preview := models.ChatPreview{
			ID:         chat.ID,
			Name:       chat.Name,
			LastUpdate: chat.LastUpdate,
			Archived:   chat.Archived(),
		}

		if chat.Name == "" {
			members, err := s.chats.GetMembers(ctx, chat.ID)
			if err != nil {
				return nil, errs.Internal(err)
			}
			preview.Name = resolveChatName(chat, members, actor.ID)
		}

		unread, err := s.messages.UnreadCount(ctx, chat.ID, actor.ID)
		if err != nil {
			return nil, errs.Internal(err)
		}
		preview.UnreadCount = unread

		latest, err := s.messages.LatestMessage(ctx, chat.ID)
		switch {
		case err == nil:
			msg := toChatMessage(latest)
			preview.LastMessage = models.MessagePreview{
				ID:        msg.ID,
				Body:      msg.Body,
				SenderID:  msg.SenderID,
				Status:    msg.Status,
				CreatedAt: msg.CreatedAt,
			}
		case errors.Is(err, repositories.ErrMessageNotFound):
			// empty chat, preview stays zero
		default:
			return nil, errs.Internal(err)
		}

		previews = append(previews, preview)
	}

	return previews, nil
}

// ChatDetails returns a single chat with its members and their presence.
func (s *ChatService) ChatDetails(ctx context.Context, actor Actor, chatID string) (models.ChatDetail, error) {
	allowed, err := s.caps.Can(ctx, capabilities.ActionView, capabilities.SubjectMessages, capabilities.Context{ChatID: chatID})
	if err != nil {
		return models.ChatDetail{}, errs.Internal(err)
	}
	if !allowed {
		return models.ChatDetail{}, errs.Forbidden("you cannot view this chat")
	}

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.ChatDetail{}, errs.NotFound("chat not found")
		}
		return models.ChatDetail{}, errs.Internal(err)
	}

	members, err := s.chats.GetMembers(ctx, chatID)
	if err != nil {
		return models.ChatDetail{}, errs.Internal(err)
	}

	now := time.Now().UTC()
	details := models.ChatDetail{
		ID:         chat.ID,
		Name:       resolveChatName(chat, members, actor.ID),
		CreatedAt:  chat.CreatedAt,
		LastUpdate: chat.LastUpdate,
		Archived:   chat.Archived(),
		Members:    make([]models.MemberDetail, 0, len(members)),
	}
	for _, member := range members {
		user := models.User{ID: member.UserID, LastSeen: member.LastSeen}
		details.Members = append(details.Members, models.MemberDetail{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			Permission:  member.Permission,
			IsOnline:    user.IsOnline(now),
		})
	}

	return details, nil
}

// MessagesPage is one page of a chat's message history.
type MessagesPage struct {
	Messages   []models.ChatMessage `json:"messages"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// Messages returns a page of messages for a chat, newest first, with each
// message's status derived from its event log. The cursor is the id of the
// last message of the previous page. Callers who are not members get a
// not-found error rather than a forbidden one, so membership is not probeable.
func (s *ChatService) Messages(ctx context.Context, actor Actor, chatID, cursor string, limit int) (MessagesPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	allowed, err := s.caps.Can(ctx, capabilities.ActionView, capabilities.SubjectMessages, capabilities.Context{ChatID: chatID})
	if err != nil {
		return MessagesPage{}, errs.Internal(err)
	}
	if !allowed {
		return MessagesPage{}, errs.Forbidden("you cannot view this chat")
	}

	if _, err := s.chats.GetChat(ctx, chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return MessagesPage{}, errs.NotFound("chat not found")
		}
		return MessagesPage{}, errs.Internal(err)
	}

	memberships, err := s.chats.GetMemberships(ctx, chatID)
	if err != nil {
		return MessagesPage{}, errs.Internal(err)
	}
	if !permissions.IsMember(actor.ID, memberships) {
		return MessagesPage{}, errs.NotFound("chat not found")
	}

	records, nextCursor, err := s.messages.ListMessages(ctx, chatID, cursor, limit)
	if err != nil {
		return MessagesPage{}, errs.Internal(err)
	}

	page := MessagesPage{
		Messages:   make([]models.ChatMessage, 0, len(records)),
		NextCursor: nextCursor,
	}
	for _, record := range records {
		page.Messages = append(page.Messages, toChatMessage(record))
	}

	return page, nil
}
