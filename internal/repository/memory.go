package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medbook/internal/model"
)

// MemoryStore keeps users, sessions and appointments in process memory.
// It backs DB_DRIVER=memory and mirrors the GORM repositories' error
// contract: gorm.ErrRecordNotFound on misses, gorm.ErrDuplicatedKey on
// unique violations.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]model.User
	sessions     map[uuid.UUID]model.Session
	appointments map[uuid.UUID]model.Appointment
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]model.User),
		sessions:     make(map[uuid.UUID]model.Session),
		appointments: make(map[uuid.UUID]model.Appointment),
	}
}

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Sessions returns a SessionRepository view of the store.
func (s *MemoryStore) Sessions() SessionRepository { return memorySessions{s} }

// Appointments returns an AppointmentRepository view of the store.
func (s *MemoryStore) Appointments() AppointmentRepository { return memoryAppointments{s} }

// SessionCount reports how many sessions are stored.
func (s *MemoryStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneUser(u model.User) *model.User {
	if u.Doctor != nil {
		d := *u.Doctor
		u.Doctor = &d
	}
	return &u
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Doctor != nil {
		user.Doctor.UserID = user.ID
	}
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r memoryUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneUser(u), nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memoryUsers) ListDoctors(ctx context.Context, specialization string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.User{}
	for _, u := range r.s.users {
		if u.Role != model.RoleDoctor || u.Doctor == nil {
			continue
		}
		if specialization != "" && u.Doctor.Specialization != specialization {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memorySessions struct{ s *MemoryStore }

func (r memorySessions) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sessions {
		if existing.RefreshToken == session.RefreshToken {
			return gorm.ErrDuplicatedKey
		}
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	r.s.sessions[session.ID] = *session
	return nil
}

func (r memorySessions) FindByToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, session := range r.s.sessions {
		if session.RefreshToken == refreshToken {
			found := session
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memorySessions) Rotate(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok || session.RefreshToken != oldToken {
		return gorm.ErrRecordNotFound
	}
	session.RefreshToken = newToken
	session.UpdatedAt = time.Now()
	r.s.sessions[id] = session
	return nil
}

func (r memorySessions) DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, refreshToken string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, session := range r.s.sessions {
		if session.UserID == userID && session.RefreshToken == refreshToken {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type memoryAppointments struct{ s *MemoryStore }

func (r memoryAppointments) Create(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.insertLocked(appointment)
	return nil
}

func (r memoryAppointments) CreateWithinCapacity(ctx context.Context, appointment *model.Appointment, capacity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.countLocked(appointment.Date) > int64(capacity) {
		return ErrSlotFull
	}
	r.insertLocked(appointment)
	return nil
}

func (r memoryAppointments) insertLocked(appointment *model.Appointment) {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now()
	appointment.CreatedAt, appointment.UpdatedAt = now, now
	r.s.appointments[appointment.ID] = *appointment
}

func (r memoryAppointments) countLocked(date time.Time) int64 {
	var n int64
	for _, a := range r.s.appointments {
		if a.Date.Equal(date) {
			n++
		}
	}
	return n
}

func (r memoryAppointments) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r memoryAppointments) CountByExactDate(ctx context.Context, date time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.countLocked(date), nil
}

func (r memoryAppointments) FindByParticipant(ctx context.Context, role model.Role, userID uuid.UUID, from time.Time) ([]model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Appointment{}
	for _, a := range r.s.appointments {
		owner := a.PatientID
		if role == model.RoleDoctor {
			owner = a.DoctorID
		}
		if owner != userID {
			continue
		}
		if !from.IsZero() && a.Date.Before(from) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r memoryAppointments) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Confirmed = true
	a.UpdatedAt = time.Now()
	r.s.appointments[id] = a
	return nil
}

func (r memoryAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.appointments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.appointments, id)
	return nil
}
