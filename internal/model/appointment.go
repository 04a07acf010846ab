package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment is a patient's booking with a doctor at an exact instant.
type Appointment struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	PatientID uuid.UUID `json:"patient_id" gorm:"type:char(36);not null;index"`
	DoctorID  uuid.UUID `json:"doctor_id" gorm:"type:char(36);not null;index"`
	Confirmed bool      `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotInstant normalizes a requested date to the precision appointments are
// stored and compared with.
func SlotInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// BeforeCreate sets UUID before creating the record.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
