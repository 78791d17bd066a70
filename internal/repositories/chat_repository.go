package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-core/internal/db"
	"chat-core/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// CreateChatParams describes a chat to create. MemberIDs are the invitees;
// the creator is added separately with the OWNER role.
type CreateChatParams struct {
	CreatorID         string
	MemberIDs         []string
	Name              string
	SystemMessageBody string
}

// ChatRepository abstracts chat and membership persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, params CreateChatParams) (string, error)
	FindPrivateChat(ctx context.Context, userID, otherID string) (string, bool, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	GetMemberships(ctx context.Context, chatID string) ([]models.ChatMembership, error)
	GetMembers(ctx context.Context, chatID string) ([]models.Member, error)
	ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	Rename(ctx context.Context, chatID, name string) error
	Archive(ctx context.Context, chatID, actingUserID, systemMessageBody string) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat inserts the chat, its full membership set, and the initial
// system message with its CREATED event, all in one transaction.
func (r *ChatRepo) CreateChat(ctx context.Context, params CreateChatParams) (string, error) {
	chatID := uuid.NewString()
	now := time.Now().UTC()

	err := db.Transact(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chats (id, name, created_at, last_update) VALUES ($1, $2, $3, $3)`,
			chatID, params.Name, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_memberships (chat_id, user_id, permission) VALUES ($1, $2, $3)`,
			chatID, params.CreatorID, models.PermissionOwner); err != nil {
			return err
		}
		for _, memberID := range params.MemberIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO chat_memberships (chat_id, user_id, permission) VALUES ($1, $2, $3)`,
				chatID, memberID, models.PermissionMember); err != nil {
				return err
			}
		}

		return insertSystemMessage(ctx, tx, chatID, params.SystemMessageBody, models.EventCreated, now)
	})
	if err != nil {
		return "", err
	}
	return chatID, nil
}

// FindPrivateChat looks for an existing chat whose membership set is exactly
// the two given users.
func (r *ChatRepo) FindPrivateChat(ctx context.Context, userID, otherID string) (string, bool, error) {
	var chatID string
	query := `SELECT c.id FROM chats c
        JOIN chat_memberships m ON m.chat_id = c.id
        GROUP BY c.id
        HAVING COUNT(*) = 2 AND COUNT(*) FILTER (WHERE m.user_id IN ($1, $2)) = 2
        LIMIT 1`
	err := r.db.GetContext(ctx, &chatID, query, userID, otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return chatID, true, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, name, created_at, last_update, archived_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetMemberships returns all membership rows of a chat.
func (r *ChatRepo) GetMemberships(ctx context.Context, chatID string) ([]models.ChatMembership, error) {
	var memberships []models.ChatMembership
	err := r.db.SelectContext(ctx, &memberships,
		`SELECT chat_id, user_id, permission, has_deleted FROM chat_memberships WHERE chat_id=$1`, chatID)
	return memberships, err
}

// GetMembers returns memberships joined with user profiles. Users not yet
// synced into the store appear with an empty display name.
func (r *ChatRepo) GetMembers(ctx context.Context, chatID string) ([]models.Member, error) {
	var members []models.Member
	query := `SELECT m.chat_id, m.user_id, m.permission, m.has_deleted,
            COALESCE(u.display_name, '') AS display_name,
            COALESCE(u.last_seen, 'epoch'::timestamptz) AS last_seen
        FROM chat_memberships m
        LEFT JOIN users u ON u.id = m.user_id
        WHERE m.chat_id=$1`
	err := r.db.SelectContext(ctx, &members, query, chatID)
	return members, err
}

// ListChatsForUser returns chats the user is a member of and has not locally
// hidden, most recently updated first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	query := `SELECT c.id, c.name, c.created_at, c.last_update, c.archived_at FROM chats c
        INNER JOIN chat_memberships m ON m.chat_id = c.id
        WHERE m.user_id=$1 AND m.has_deleted = FALSE
        ORDER BY c.last_update DESC`
	err := r.db.SelectContext(ctx, &chats, query, userID)
	return chats, err
}

// Rename updates the chat name.
func (r *ChatRepo) Rename(ctx context.Context, chatID, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET name=$2, last_update=NOW() WHERE id=$1`, chatID, name)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

// Archive marks the chat archived at most once. The compare-and-set on
// archived_at decides the race under concurrent archival requests: exactly
// one caller wins, appends the system message, and hides the chat for the
// acting user; every other caller observes zero affected rows and the
// transaction writes nothing. Returns false when the chat was already
// archived.
func (r *ChatRepo) Archive(ctx context.Context, chatID, actingUserID, systemMessageBody string) (bool, error) {
	archived := false
	now := time.Now().UTC()

	err := db.Transact(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE chats SET archived_at=$2, last_update=$2 WHERE id=$1 AND archived_at IS NULL`, chatID, now)
		if err != nil {
			return err
		}
		count, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		archived = true

		if err := insertSystemMessage(ctx, tx, chatID, systemMessageBody, models.EventStored, now); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE chat_memberships SET has_deleted = TRUE WHERE chat_id=$1 AND user_id=$2`, chatID, actingUserID)
		return err
	})
	if err != nil {
		return false, err
	}
	return archived, nil
}

// insertSystemMessage writes a system message with its initial content
// revision and a single lifecycle event, inside the caller's transaction.
func insertSystemMessage(ctx context.Context, tx *sqlx.Tx, chatID, body string, kind models.MessageEventKind, at time.Time) error {
	messageID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO messages (id, chat_id, sender_id, type, created_at) VALUES ($1, $2, NULL, $3, $4)`,
		messageID, chatID, models.SystemMessage, at); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO message_contents (id, message_id, revision, body, created_at) VALUES ($1, $2, 0, $3, $4)`,
		uuid.NewString(), messageID, body, at); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO message_events (id, message_id, kind, user_id, created_at) VALUES ($1, $2, $3, NULL, $4)`,
		uuid.NewString(), messageID, kind, at)
	return err
}
