package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role discriminates patients from doctors.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// User represents a registered patient or doctor.
// Build new users with NewUser so the doctor profile always matches the role.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Name         string         `json:"name" gorm:"size:255"`
	Role         Role           `json:"type" gorm:"type:varchar(20);not null;index"`
	Doctor       *DoctorProfile `json:"doctor,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DoctorProfile is the persisted form of DoctorDetails.
type DoctorProfile struct {
	ID             uuid.UUID `json:"-" gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID `json:"-" gorm:"type:char(36);uniqueIndex;not null"`
	Available      bool      `json:"available" gorm:"not null"`
	Specialization string    `json:"specialization" gorm:"size:255;not null;index"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// NewUser builds a user whose role and doctor profile are derived from p.
func NewUser(email, passwordHash, name string, p Profile) *User {
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         p.Role(),
	}
	if d, ok := p.(DoctorDetails); ok {
		u.Doctor = &DoctorProfile{
			ID:             uuid.New(),
			UserID:         u.ID,
			Available:      d.Available,
			Specialization: d.Specialization,
		}
	}
	return u
}

// Profile returns the role-specific variant of the user.
func (u *User) Profile() Profile {
	if u.Role == RoleDoctor && u.Doctor != nil {
		return DoctorDetails{Available: u.Doctor.Available, Specialization: u.Doctor.Specialization}
	}
	return PatientDetails{}
}

// IsDoctor reports whether the user acts as a doctor.
func (u *User) IsDoctor() bool {
	_, ok := u.Profile().(DoctorDetails)
	return ok
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate sets UUID before creating the record.
func (d *DoctorProfile) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
