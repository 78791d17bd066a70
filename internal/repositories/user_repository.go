package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-core/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence. Users are never hard-deleted.
type UserRepository interface {
	Upsert(ctx context.Context, user models.User) (models.User, error)
	Get(ctx context.Context, userID string) (models.User, error)
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert creates the user on first authenticated contact, or syncs the
// display name and last-seen timestamp on subsequent ones.
func (r *UserRepo) Upsert(ctx context.Context, user models.User) (models.User, error) {
	var row models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (id, display_name, last_seen) VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, last_seen = EXCLUDED.last_seen
        RETURNING id, display_name, last_seen`, user.ID, user.DisplayName, user.LastSeen).
		StructScan(&row)
	return row, err
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, display_name, last_seen FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// TouchLastSeen updates the user's last-seen timestamp. A missing row is
// reported as ErrUserNotFound; the row is deliberately not created here.
func (r *UserRepo) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen=$2 WHERE id=$1`, userID, at)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
