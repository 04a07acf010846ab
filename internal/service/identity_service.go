package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medbook/internal/auth"
	"medbook/internal/cache"
	apperrors "medbook/internal/errors"
	"medbook/internal/model"
	"medbook/internal/repository"
)

const actorCacheTTL = 5 * time.Minute

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email          string
	Password       string
	Name           string
	Role           model.Role
	Available      *bool
	Specialization string
}

// IdentityService handles registration, sessions and actor resolution.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	ResolveActor(ctx context.Context, userID uuid.UUID) (*model.User, error)
	ListDoctors(ctx context.Context, specialization string) ([]model.User, error)
}

type identityService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	tokens       *auth.TokenIssuer
	cache        *cache.Client
	passwordCost int
	logger       zerolog.Logger
}

// NewIdentityService creates a new identity service. cacheClient may be nil.
func NewIdentityService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenIssuer,
	cacheClient *cache.Client,
	passwordCost int,
	logger zerolog.Logger,
) IdentityService {
	if passwordCost == 0 {
		passwordCost = bcrypt.DefaultCost
	}
	return &identityService{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		cache:        cacheClient,
		passwordCost: passwordCost,
		logger:       logger,
	}
}

// Register creates a patient or a doctor with a hashed password.
func (s *identityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	if in.Role != model.RolePatient && in.Role != model.RoleDoctor {
		return nil, apperrors.ErrInvalidRole
	}
	profile, ok := model.ProfileFor(in.Role, in.Available, in.Specialization)
	if !ok {
		return nil, apperrors.ErrMissingDoctorFields
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.NewUser(email, string(hashedPassword), in.Name, profile)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login checks the password and opens a new session.
func (s *identityService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, apperrors.ErrUserNotFound
		}
		return auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return auth.TokenPair{}, apperrors.ErrBadPassword
	}

	pair, err := s.tokens.IssuePair(user.ID.String())
	if err != nil {
		return auth.TokenPair{}, err
	}

	session := &model.Session{UserID: user.ID, RefreshToken: pair.RefreshToken}
	if err := s.sessions.Create(ctx, session); err != nil {
		return auth.TokenPair{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("session_id", session.ID.String()).Msg("session opened")
	return pair, nil
}

// Logout removes the session holding refreshToken. Unknown sessions are ignored.
func (s *identityService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	n, err := s.sessions.DeleteByUserAndToken(ctx, userID, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n > 0 {
		s.logger.Info().Str("user_id", userID.String()).Msg("session closed")
	}
	return nil
}

// Refresh rotates the session's refresh token and returns a new pair.
func (s *identityService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return auth.TokenPair{}, apperrors.ErrBadRefreshToken
	}

	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, apperrors.ErrRefreshNotFound
		}
		return auth.TokenPair{}, fmt.Errorf("find session: %w", err)
	}

	pair, err := s.tokens.IssuePair(session.UserID.String())
	if err != nil {
		return auth.TokenPair{}, err
	}

	if err := s.sessions.Rotate(ctx, session.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// another refresh with the same token won the swap
			return auth.TokenPair{}, apperrors.ErrRefreshNotFound
		}
		return auth.TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}

	s.logger.Info().Str("user_id", session.UserID.String()).Str("session_id", session.ID.String()).Msg("session rotated")
	return pair, nil
}

// cachedActor is the cache representation of a user. It never holds the
// password hash.
type cachedActor struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           model.Role `json:"role"`
	Available      bool       `json:"available"`
	Specialization string     `json:"specialization"`
}

func actorKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// ResolveActor loads a user by id, through the cache.
func (s *identityService) ResolveActor(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var cached cachedActor
	if s.cache.GetJSON(ctx, actorKey(userID), &cached) && cached.ID == userID {
		return cached.user(), nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	s.cache.SetJSON(ctx, actorKey(userID), newCachedActor(user), actorCacheTTL)
	return user, nil
}

func newCachedActor(u *model.User) cachedActor {
	c := cachedActor{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
	if d, ok := u.Profile().(model.DoctorDetails); ok {
		c.Available = d.Available
		c.Specialization = d.Specialization
	}
	return c
}

func (c cachedActor) user() *model.User {
	var p model.Profile = model.PatientDetails{}
	if c.Role == model.RoleDoctor {
		p = model.DoctorDetails{Available: c.Available, Specialization: c.Specialization}
	}
	u := model.NewUser(c.Email, "", c.Name, p)
	u.ID = c.ID
	if u.Doctor != nil {
		u.Doctor.UserID = c.ID
	}
	return u
}

// ListDoctors returns the doctor directory.
func (s *identityService) ListDoctors(ctx context.Context, specialization string) ([]model.User, error) {
	doctors, err := s.users.ListDoctors(ctx, strings.TrimSpace(specialization))
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}
