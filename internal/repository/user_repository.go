package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medbook/internal/model"
)

// UserRepository defines persistence operations for the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListDoctors(ctx context.Context, specialization string) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user together with its doctor profile, if any.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Doctor").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Doctor").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListDoctors lists doctors, optionally restricted to one specialization.
func (r *userRepository) ListDoctors(ctx context.Context, specialization string) ([]model.User, error) {
	q := r.db.WithContext(ctx).
		Joins("Doctor").
		Where("users.role = ?", model.RoleDoctor)
	if specialization != "" {
		q = q.Where("users.id IN (?)", r.db.Model(&model.DoctorProfile{}).
			Select("user_id").
			Where("specialization = ?", specialization))
	}

	var users []model.User
	if err := q.Order("users.name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
