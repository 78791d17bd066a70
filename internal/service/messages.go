package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"chat-core/internal/capabilities"
	"chat-core/internal/errs"
	"chat-core/internal/models"
	"chat-core/internal/observability"
	"chat-core/internal/permissions"
	"chat-core/internal/repositories"
	"chat-core/internal/status"
)

const maxMessageLength = 2000

// SendMessage stores a user message in a chat, derives its delivery status
// from the freshly written event log, and broadcasts it to connected clients.
func (s *ChatService) SendMessage(ctx context.Context, actor Actor, chatID, body string) (models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.ChatMessage{}, errs.BadRequest("message body must not be empty")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return models.ChatMessage{}, errs.BadRequest("message body exceeds %d characters", maxMessageLength)
	}

	allowed, err := s.caps.Can(ctx, capabilities.ActionSend, capabilities.SubjectMessages, capabilities.Context{ChatID: chatID})
	if err != nil {
		return models.ChatMessage{}, errs.Internal(err)
	}
	if !allowed {
		return models.ChatMessage{}, errs.Forbidden("messaging is disabled in this chat or globally")
	}

	if _, err := s.chats.GetChat(ctx, chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.ChatMessage{}, errs.NotFound("chat not found")
		}
		return models.ChatMessage{}, errs.Internal(err)
	}

	memberships, err := s.chats.GetMemberships(ctx, chatID)
	if err != nil {
		return models.ChatMessage{}, errs.Internal(err)
	}
	if !permissions.IsMember(actor.ID, memberships) {
		return models.ChatMessage{}, errs.Forbidden("you are not a member of this chat")
	}

	record, err := s.messages.CreateMessage(ctx, repositories.CreateMessageParams{
		ChatID:   chatID,
		SenderID: actor.ID,
		Body:     body,
	})
	if err != nil {
		return models.ChatMessage{}, errs.Internal(err)
	}

	for _, event := range record.Events {
		observability.IncMessageEvent(string(event.Kind))
	}

	msg := toChatMessage(record)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(chatID, msg)
	}
	_ = observability.PublishEvent(ctx, "message.created",
		observability.NewEnvelope("message_events", "message_created", map[string]interface{}{
			"chat_id":    chatID,
			"message_id": msg.ID,
			"sender_id":  actor.ID,
		}), observability.BuildHeaders(actor.RequestID, ""))

	return msg, nil
}

// MessageStatus records a delivery status reported by a recipient. DELIVERED
// and READ map to recipient-scoped events in the log; the returned status is
// derived from the whole log, so an out-of-order DELIVERED after READ does
// not downgrade it.
func (s *ChatService) MessageStatus(ctx context.Context, actor Actor, messageID string, reported models.ReportedStatus) (models.MessageEventKind, error) {
	var kind models.MessageEventKind
	switch reported {
	case models.StatusDelivered:
		kind = models.EventUserReceived
	case models.StatusRead:
		kind = models.EventUserRead
	default:
		return "", errs.BadRequest("unknown status: %s", reported)
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return "", errs.NotFound("message not found")
		}
		return "", errs.Internal(err)
	}

	if _, err := s.messages.AppendEvent(ctx, messageID, kind, &actor.ID); err != nil {
		return "", errs.Internal(err)
	}
	observability.IncMessageEvent(string(kind))

	events, err := s.messages.ListEvents(ctx, messageID)
	if err != nil {
		return "", errs.Internal(err)
	}
	derived := status.FromEvents(events)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastStatus(msg.ChatID, messageID, derived)
	}
	_ = observability.PublishEvent(ctx, "message.status",
		observability.NewEnvelope("message_events", "message_status", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": messageID,
			"status":     derived,
			"user_id":    actor.ID,
		}), observability.BuildHeaders(actor.RequestID, ""))

	return derived, nil
}

// UpdateMessageContent appends a new content revision to a message. Only the
// original sender may edit; system messages have no sender and cannot be
// edited.
func (s *ChatService) UpdateMessageContent(ctx context.Context, actor Actor, messageID, body string) (models.MessageContent, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.MessageContent{}, errs.BadRequest("message body must not be empty")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return models.MessageContent{}, errs.BadRequest("message body exceeds %d characters", maxMessageLength)
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.MessageContent{}, errs.NotFound("message not found")
		}
		return models.MessageContent{}, errs.Internal(err)
	}
	if msg.SenderID == nil || *msg.SenderID != actor.ID {
		return models.MessageContent{}, errs.Forbidden("you can only update your own messages")
	}

	content, err := s.messages.AppendContent(ctx, messageID, body)
	if err != nil {
		return models.MessageContent{}, errs.Internal(err)
	}

	_ = observability.PublishEvent(ctx, "message.updated",
		observability.NewEnvelope("message_events", "message_updated", map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": messageID,
			"revision":   content.Revision,
		}), observability.BuildHeaders(actor.RequestID, ""))

	return content, nil
}

func toChatMessage(record models.MessageRecord) models.ChatMessage {
	return models.ChatMessage{
		ID:        record.ID,
		ChatID:    record.ChatID,
		SenderID:  record.SenderID,
		Type:      record.Type,
		Body:      record.Body,
		Revision:  record.Revision,
		Status:    status.FromEvents(record.Events),
		CreatedAt: record.CreatedAt,
	}
}
