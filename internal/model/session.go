package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session binds one live refresh token to a user. Refresh rotates the token
// in place; logout deletes the row.
type Session struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	RefreshToken string    `json:"-" gorm:"type:varchar(512);not null;uniqueIndex"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
