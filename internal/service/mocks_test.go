package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medbook/internal/model"
	"medbook/internal/notify"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListDoctors(ctx context.Context, specialization string) ([]model.User, error) {
	args := m.Called(ctx, specialization)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) Rotate(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	args := m.Called(ctx, id, oldToken, newToken)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, refreshToken string) (int64, error) {
	args := m.Called(ctx, userID, refreshToken)
	return args.Get(0).(int64), args.Error(1)
}

// MockAppointmentRepository is a mock implementation of AppointmentRepository.
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) CreateWithinCapacity(ctx context.Context, appointment *model.Appointment, capacity int) error {
	args := m.Called(ctx, appointment, capacity)
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) CountByExactDate(ctx context.Context, date time.Time) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) FindByParticipant(ctx context.Context, role model.Role, userID uuid.UUID, from time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, role, userID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockActorResolver is a mock implementation of ActorResolver.
type MockActorResolver struct {
	mock.Mock
}

func (m *MockActorResolver) ResolveActor(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockScheduler is a mock implementation of notify.Scheduler.
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(r notify.Reminder) {
	m.Called(r)
}

func (m *MockScheduler) Cancel(appointmentID uuid.UUID) {
	m.Called(appointmentID)
}
