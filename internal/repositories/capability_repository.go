package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-core/internal/models"
)

// CapabilityRepository persists per-chat capability overrides.
type CapabilityRepository interface {
	GetChatCapability(ctx context.Context, chatID, capability string) (*models.ChatCapability, error)
	SetChatCapability(ctx context.Context, chatID, capability string, enabled bool) error
}

// CapabilityRepo is a sqlx implementation of CapabilityRepository.
type CapabilityRepo struct {
	db *sqlx.DB
}

// NewCapabilityRepo constructs a CapabilityRepo.
func NewCapabilityRepo(db *sqlx.DB) *CapabilityRepo {
	return &CapabilityRepo{db: db}
}

// GetChatCapability returns the override for a chat, or nil when none is set.
func (r *CapabilityRepo) GetChatCapability(ctx context.Context, chatID, capability string) (*models.ChatCapability, error) {
	var row models.ChatCapability
	err := r.db.GetContext(ctx, &row,
		`SELECT chat_id, capability, enabled FROM chat_capabilities WHERE chat_id=$1 AND capability=$2`, chatID, capability)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SetChatCapability upserts the override for a chat.
func (r *CapabilityRepo) SetChatCapability(ctx context.Context, chatID, capability string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_capabilities (chat_id, capability, enabled) VALUES ($1, $2, $3)
        ON CONFLICT (chat_id, capability) DO UPDATE SET enabled = EXCLUDED.enabled`, chatID, capability, enabled)
	return err
}
