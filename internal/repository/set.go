package repository

import "gorm.io/gorm"

// Set groups the repositories the services depend on.
type Set struct {
	Users        UserRepository
	Sessions     SessionRepository
	Appointments AppointmentRepository
}

// NewGormSet builds GORM-backed repositories sharing one connection.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Users:        NewUserRepository(db),
		Sessions:     NewSessionRepository(db),
		Appointments: NewAppointmentRepository(db),
	}
}

// Set returns repositories backed by the in-memory store.
func (s *MemoryStore) Set() Set {
	return Set{
		Users:        s.Users(),
		Sessions:     s.Sessions(),
		Appointments: s.Appointments(),
	}
}
