package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medbook/internal/model"
)

// SessionRepository defines persistence operations for refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByToken(ctx context.Context, refreshToken string) (*model.Session, error)
	// Rotate swaps the session's token only if it still holds oldToken.
	// It returns gorm.ErrRecordNotFound when the row no longer matches.
	Rotate(ctx context.Context, id uuid.UUID, oldToken, newToken string) error
	DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, refreshToken string) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session.
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByToken finds the session holding exactly refreshToken.
func (r *sessionRepository) FindByToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Rotate(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND refresh_token = ?", id, oldToken).
		Update("refresh_token", newToken)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUserAndToken removes the matching session and reports how many rows went away.
func (r *sessionRepository) DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, refreshToken string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND refresh_token = ?", userID, refreshToken).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
