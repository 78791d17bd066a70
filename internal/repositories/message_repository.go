package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-core/internal/db"
	"chat-core/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// CreateMessageParams describes a user message to store.
type CreateMessageParams struct {
	ChatID   string
	SenderID string
	Body     string
}

// MessageRepository defines interactions for messages, their content
// versions, and their append-only event logs.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (models.MessageRecord, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	AppendEvent(ctx context.Context, messageID string, kind models.MessageEventKind, userID *string) (models.MessageEvent, error)
	ListEvents(ctx context.Context, messageID string) ([]models.MessageEvent, error)
	AppendContent(ctx context.Context, messageID, body string) (models.MessageContent, error)
	ListMessages(ctx context.Context, chatID, cursor string, limit int) ([]models.MessageRecord, string, error)
	LatestMessage(ctx context.Context, chatID string) (models.MessageRecord, error)
	UnreadCount(ctx context.Context, chatID, userID string) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a user message with its first content revision, a
// CREATED event for the sender and a STORED event for the server, and bumps
// the chat's last-update timestamp, all in one transaction.
func (r *MessageRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (models.MessageRecord, error) {
	now := time.Now().UTC()
	record := models.MessageRecord{
		Message: models.Message{
			ID:        uuid.NewString(),
			ChatID:    params.ChatID,
			SenderID:  &params.SenderID,
			Type:      models.UserMessage,
			CreatedAt: now,
		},
		Body:     params.Body,
		Revision: 0,
	}

	err := db.Transact(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO messages (id, chat_id, sender_id, type, created_at) VALUES ($1, $2, $3, $4, $5)`,
			record.ID, record.ChatID, params.SenderID, record.Type, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_contents (id, message_id, revision, body, created_at) VALUES ($1, $2, 0, $3, $4)`,
			uuid.NewString(), record.ID, params.Body, now); err != nil {
			return err
		}

		events := []models.MessageEvent{
			{ID: uuid.NewString(), MessageID: record.ID, Kind: models.EventCreated, UserID: &params.SenderID, CreatedAt: now},
			{ID: uuid.NewString(), MessageID: record.ID, Kind: models.EventStored, CreatedAt: now},
		}
		for _, event := range events {
			if _, err := tx.ExecContext(ctx, `INSERT INTO message_events (id, message_id, kind, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
				event.ID, event.MessageID, event.Kind, event.UserID, event.CreatedAt); err != nil {
				return err
			}
		}
		record.Events = events

		_, err := tx.ExecContext(ctx, `UPDATE chats SET last_update=$2 WHERE id=$1`, record.ChatID, now)
		return err
	})
	if err != nil {
		return models.MessageRecord{}, err
	}
	return record, nil
}

// GetMessage retrieves a single message row.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, chat_id, sender_id, type, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// AppendEvent writes one delivery fact. Events are never updated or deleted.
func (r *MessageRepo) AppendEvent(ctx context.Context, messageID string, kind models.MessageEventKind, userID *string) (models.MessageEvent, error) {
	event := models.MessageEvent{
		ID:        uuid.NewString(),
		MessageID: messageID,
		Kind:      kind,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_events (id, message_id, kind, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.MessageID, event.Kind, event.UserID, event.CreatedAt)
	if err != nil {
		return models.MessageEvent{}, err
	}
	return event, nil
}

// ListEvents returns the full event log of a message.
func (r *MessageRepo) ListEvents(ctx context.Context, messageID string) ([]models.MessageEvent, error) {
	var events []models.MessageEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT id, message_id, kind, user_id, created_at FROM message_events WHERE message_id=$1 ORDER BY created_at ASC`, messageID)
	return events, err
}

// AppendContent writes the next content revision of a message, preserving the
// existing ones.
func (r *MessageRepo) AppendContent(ctx context.Context, messageID, body string) (models.MessageContent, error) {
	content := models.MessageContent{
		ID:        uuid.NewString(),
		MessageID: messageID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	err := db.Transact(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &content.Revision,
			`SELECT COALESCE(MAX(revision), -1) + 1 FROM message_contents WHERE message_id=$1`, messageID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO message_contents (id, message_id, revision, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
			content.ID, content.MessageID, content.Revision, content.Body, content.CreatedAt)
		return err
	})
	if err != nil {
		return models.MessageContent{}, err
	}
	return content, nil
}

const messageRecordQuery = `SELECT m.id, m.chat_id, m.sender_id, m.type, m.created_at, c.body, c.revision
    FROM messages m
    JOIN LATERAL (
        SELECT body, revision FROM message_contents WHERE message_id = m.id ORDER BY revision DESC LIMIT 1
    ) c ON TRUE`

// ListMessages returns one page of a chat's messages, newest first, with the
// latest content revision and the event log attached. The cursor is the id of
// the last message of the previous page; an empty next cursor means the end.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID, cursor string, limit int) ([]models.MessageRecord, string, error) {
	args := []interface{}{chatID}
	query := messageRecordQuery + ` WHERE m.chat_id=$1`

	if cursor != "" {
		var anchor models.Message
		err := r.db.GetContext(ctx, &anchor, `SELECT id, chat_id, sender_id, type, created_at FROM messages WHERE id=$1`, cursor)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrMessageNotFound
		}
		if err != nil {
			return nil, "", err
		}
		query += ` AND (m.created_at, m.id) < ($2, $3)`
		args = append(args, anchor.CreatedAt, anchor.ID)
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC LIMIT ` + strconv.Itoa(limit+1)

	var records []models.MessageRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(records) > limit {
		records = records[:limit]
		nextCursor = records[len(records)-1].ID
	}

	if err := r.attachEvents(ctx, records); err != nil {
		return nil, "", err
	}
	return records, nextCursor, nil
}

// LatestMessage returns the most recent message of a chat.
func (r *MessageRepo) LatestMessage(ctx context.Context, chatID string) (models.MessageRecord, error) {
	var record models.MessageRecord
	err := r.db.GetContext(ctx, &record,
		messageRecordQuery+` WHERE m.chat_id=$1 ORDER BY m.created_at DESC, m.id DESC LIMIT 1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageRecord{}, ErrMessageNotFound
	}
	if err != nil {
		return models.MessageRecord{}, err
	}

	records := []models.MessageRecord{record}
	if err := r.attachEvents(ctx, records); err != nil {
		return models.MessageRecord{}, err
	}
	return records[0], nil
}

// UnreadCount counts messages from other senders that carry no read event for
// any recipient yet.
func (r *MessageRepo) UnreadCount(ctx context.Context, chatID, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages m
        WHERE m.chat_id=$1
        AND (m.sender_id IS NULL OR m.sender_id <> $2)
        AND NOT EXISTS (
            SELECT 1 FROM message_events e
            WHERE e.message_id = m.id AND e.kind IN ('READ', 'USER_READ')
        )`
	err := r.db.GetContext(ctx, &count, query, chatID, userID)
	return count, err
}

func (r *MessageRepo) attachEvents(ctx context.Context, records []models.MessageRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	var events []models.MessageEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT id, message_id, kind, user_id, created_at FROM message_events WHERE message_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(ids))
	if err != nil {
		return err
	}

	byMessage := make(map[string][]models.MessageEvent, len(records))
	for _, event := range events {
		byMessage[event.MessageID] = append(byMessage[event.MessageID], event)
	}
	for i := range records {
		records[i].Events = byMessage[records[i].ID]
	}
	return nil
}
