package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medbook/internal/auth"
	apperrors "medbook/internal/errors"
	"medbook/internal/model"
	"medbook/internal/repository"
)

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func boolPtr(b bool) *bool { return &b }

func newMockIdentity(users *MockUserRepository, sessions *MockSessionRepository) IdentityService {
	return NewIdentityService(users, sessions, testIssuer(), nil, bcrypt.MinCost, zerolog.Nop())
}

func TestIdentityService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful patient registration",
			input: RegisterInput{Email: "pat@example.com", Password: "secret", Name: "Pat", Role: model.RolePatient},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "pat@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RolePatient && u.Doctor == nil
				})).Return(nil)
			},
		},
		{
			name: "successful doctor registration",
			input: RegisterInput{
				Email: "doc@example.com", Password: "secret", Name: "Doc",
				Role: model.RoleDoctor, Available: boolPtr(true), Specialization: "therapist",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "doc@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RoleDoctor && u.Doctor != nil && u.Doctor.Specialization == "therapist"
				})).Return(nil)
			},
		},
		{
			name: "unavailable doctor is still a complete doctor",
			input: RegisterInput{
				Email: "busy@example.com", Password: "secret", Name: "Busy",
				Role: model.RoleDoctor, Available: boolPtr(false), Specialization: "surgeon",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "busy@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "email already exists",
			input: RegisterInput{Email: "taken@example.com", Password: "secret", Role: model.RolePatient},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: apperrors.ErrDuplicateEmail,
		},
		{
			name:  "unique violation on insert",
			input: RegisterInput{Email: "race@example.com", Password: "secret", Role: model.RolePatient},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrDuplicateEmail,
		},
		{
			name:  "doctor without specialization",
			input: RegisterInput{Email: "nospec@example.com", Password: "secret", Role: model.RoleDoctor, Available: boolPtr(true)},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nospec@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrMissingDoctorFields,
		},
		{
			name:  "doctor without availability",
			input: RegisterInput{Email: "noavail@example.com", Password: "secret", Role: model.RoleDoctor, Specialization: "therapist"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "noavail@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrMissingDoctorFields,
		},
		{
			name:  "unknown role",
			input: RegisterInput{Email: "nurse@example.com", Password: "secret", Role: "nurse"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nurse@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionRepository)
			tt.setupMock(users)

			user, err := newMockIdentity(users, sessions).Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}
			users.AssertExpectations(t)
			sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestIdentityService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{ID: uuid.New(), Email: "pat@example.com", PasswordHash: string(hash), Role: model.RolePatient}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockSessionRepository)
		expectedError error
	}{
		{
			name:     "successful login opens one session",
			email:    "pat@example.com",
			password: "secret",
			setupMock: func(u *MockUserRepository, s *MockSessionRepository) {
				u.On("FindByEmail", mock.Anything, "pat@example.com").Return(user, nil)
				s.On("Create", mock.Anything, mock.MatchedBy(func(sess *model.Session) bool {
					return sess.UserID == user.ID && sess.RefreshToken != ""
				})).Return(nil).Once()
			},
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "secret",
			setupMock: func(u *MockUserRepository, s *MockSessionRepository) {
				u.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			email:    "pat@example.com",
			password: "nope",
			setupMock: func(u *MockUserRepository, s *MockSessionRepository) {
				u.On("FindByEmail", mock.Anything, "pat@example.com").Return(user, nil)
			},
			expectedError: apperrors.ErrBadPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionRepository)
			tt.setupMock(users, sessions)

			pair, err := newMockIdentity(users, sessions).Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, pair.AccessToken)
				sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			claims, err := testIssuer().VerifyAccess(pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, user.ID.String(), claims.UserID)
			sessions.AssertExpectations(t)
		})
	}
}

func TestIdentityService_RefreshRejectsBadToken(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)

	_, err := newMockIdentity(users, sessions).Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrBadRefreshToken)
	sessions.AssertNotCalled(t, "FindByToken", mock.Anything, mock.Anything)
}

func TestIdentityService_RefreshUnknownSession(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	pair, err := testIssuer().IssuePair(uuid.NewString())
	require.NoError(t, err)
	sessions.On("FindByToken", mock.Anything, pair.RefreshToken).Return(nil, gorm.ErrRecordNotFound)

	_, err = newMockIdentity(users, sessions).Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshNotFound)
}

func TestIdentityService_RefreshLosesSwap(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	userID := uuid.New()
	pair, err := testIssuer().IssuePair(userID.String())
	require.NoError(t, err)

	session := &model.Session{ID: uuid.New(), UserID: userID, RefreshToken: pair.RefreshToken}
	sessions.On("FindByToken", mock.Anything, pair.RefreshToken).Return(session, nil)
	sessions.On("Rotate", mock.Anything, session.ID, pair.RefreshToken, mock.AnythingOfType("string")).Return(gorm.ErrRecordNotFound)

	_, err = newMockIdentity(users, sessions).Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshNotFound)
}

func TestIdentityService_LogoutIsIdempotent(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	userID := uuid.New()
	sessions.On("DeleteByUserAndToken", mock.Anything, userID, "token").Return(int64(1), nil).Once()
	sessions.On("DeleteByUserAndToken", mock.Anything, userID, "token").Return(int64(0), nil).Once()

	svc := newMockIdentity(users, sessions)
	assert.NoError(t, svc.Logout(context.Background(), userID, "token"))
	assert.NoError(t, svc.Logout(context.Background(), userID, "token"))
	sessions.AssertExpectations(t)
}

func TestIdentityService_ResolveActor(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	known := model.NewUser("doc@example.com", "hash", "Doc", model.DoctorDetails{Available: true, Specialization: "therapist"})
	missing := uuid.New()
	users.On("FindByID", mock.Anything, known.ID).Return(known, nil)
	users.On("FindByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound)

	svc := newMockIdentity(users, sessions)

	got, err := svc.ResolveActor(context.Background(), known.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDoctor())

	_, err = svc.ResolveActor(context.Background(), missing)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestCachedActorRoundTrip(t *testing.T) {
	doctor := model.NewUser("doc@example.com", "hash", "Doc", model.DoctorDetails{Available: false, Specialization: "surgeon"})

	restored := newCachedActor(doctor).user()
	assert.Equal(t, doctor.ID, restored.ID)
	assert.Equal(t, doctor.Profile(), restored.Profile())
	assert.Empty(t, restored.PasswordHash)

	patient := model.NewUser("pat@example.com", "hash", "Pat", model.PatientDetails{})
	assert.False(t, newCachedActor(patient).user().IsDoctor())
}

func newMemoryIdentity(t *testing.T) (IdentityService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewIdentityService(store.Users(), store.Sessions(), testIssuer(), nil, bcrypt.MinCost, zerolog.Nop()), store
}

func TestIdentityService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryIdentity(t)

	_, err := svc.Register(ctx, RegisterInput{Email: "pat@example.com", Password: "secret", Name: "Pat", Role: model.RolePatient})
	require.NoError(t, err)
	assert.Zero(t, store.SessionCount(), "registration opens no session")

	first, err := svc.Login(ctx, "pat@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 1, store.SessionCount())

	rotated, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, 1, store.SessionCount(), "refresh rotates in place")

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshNotFound, "old token is dead after rotation")

	claims, err := testIssuer().VerifyRefresh(rotated.RefreshToken)
	require.NoError(t, err)
	userID := uuid.MustParse(claims.UserID)

	require.NoError(t, svc.Logout(ctx, userID, rotated.RefreshToken))
	assert.Zero(t, store.SessionCount())
	require.NoError(t, svc.Logout(ctx, userID, rotated.RefreshToken))

	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshNotFound)
}

func TestIdentityService_ConcurrentRefreshHasOneWinner(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryIdentity(t)

	_, err := svc.Register(ctx, RegisterInput{Email: "pat@example.com", Password: "secret", Role: model.RolePatient})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "pat@example.com", "secret")
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrRefreshNotFound)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.SessionCount())
}

func TestIdentityService_ListDoctors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryIdentity(t)

	for _, in := range []RegisterInput{
		{Email: "a@example.com", Password: "secret", Name: "Alice", Role: model.RoleDoctor, Available: boolPtr(true), Specialization: "therapist"},
		{Email: "b@example.com", Password: "secret", Name: "Bob", Role: model.RoleDoctor, Available: boolPtr(true), Specialization: "surgeon"},
		{Email: "c@example.com", Password: "secret", Name: "Carl", Role: model.RolePatient},
	} {
		_, err := svc.Register(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.ListDoctors(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].Name)

	surgeons, err := svc.ListDoctors(ctx, "surgeon")
	require.NoError(t, err)
	require.Len(t, surgeons, 1)
	assert.Equal(t, "Bob", surgeons[0].Name)
}
