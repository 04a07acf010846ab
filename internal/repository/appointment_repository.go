package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medbook/internal/model"
)

// ErrSlotFull is returned by CreateWithinCapacity when the slot filled up
// between the caller's pre-check and the insert.
var ErrSlotFull = errors.New("slot is full")

// AppointmentRepository defines appointment persistence operations.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	// CreateWithinCapacity re-counts appointments at the same instant under a
	// row lock and inserts only while that count is not above capacity.
	CreateWithinCapacity(ctx context.Context, appointment *model.Appointment, capacity int) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	CountByExactDate(ctx context.Context, date time.Time) (int64, error)
	// FindByParticipant lists appointments where userID plays role. A zero
	// from disables the lower date bound.
	FindByParticipant(ctx context.Context, role model.Role, userID uuid.UUID, from time.Time) ([]model.Appointment, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create creates a new appointment.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *appointmentRepository) CreateWithinCapacity(ctx context.Context, appointment *model.Appointment, capacity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&model.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("date = ?", appointment.Date).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > capacity {
			return ErrSlotFull
		}
		return tx.Create(appointment).Error
	})
}

// FindByID finds an appointment by ID.
func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

// CountByExactDate counts appointments booked at exactly date.
func (r *appointmentRepository) CountByExactDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("date = ?", date).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) FindByParticipant(ctx context.Context, role model.Role, userID uuid.UUID, from time.Time) ([]model.Appointment, error) {
	column := "patient_id"
	if role == model.RoleDoctor {
		column = "doctor_id"
	}

	q := r.db.WithContext(ctx).Where(column+" = ?", userID)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}

	var appointments []model.Appointment
	if err := q.Order("date").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// MarkConfirmed sets the confirmed flag in a single update.
func (r *appointmentRepository) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("id = ?", id).
		Update("confirmed", true).Error
}

// Delete removes an appointment.
func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
