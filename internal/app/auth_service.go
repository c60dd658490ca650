package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/pkg/logger"
)

const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// Session is the result of a successful sign-in.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService registers users, checks credentials and resolves identity tokens.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	hasher PasswordHasher
	log    *logger.Logger
}

func NewAuthService(users UserRepository, tokens TokenIssuer, hasher PasswordHasher, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, hasher: hasher, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return Session{}, fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidArgument, MinUsernameLength, MaxUsernameLength)
	}
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: email is invalid", domain.ErrInvalidArgument)
	}
	if len(password) < MinPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, MinPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, domain.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		PrivacyFriends: domain.PrivacyPublic,
		PrivacyAnswers: domain.PrivacyPublic,
	})
	if err != nil {
		return Session{}, storageErr("create user", err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, storageErr("load user", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AuthService) session(u domain.User) (Session, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token into a user id that still exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthenticated
	}
	id, err := s.tokens.Parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if _, err := s.users.UserByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return 0, domain.ErrUnauthenticated
		}
		return 0, storageErr("load user", err)
	}
	return id, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (domain.User, error) {
	if userID <= 0 {
		return domain.User{}, domain.ErrUnauthenticated
	}
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return domain.User{}, storageErr("load user", err)
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(next) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, MinPasswordLength)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storageErr("update password", err)
	}
	s.log.Info("password changed", "user_id", userID)
	return nil
}

func (s *AuthService) UpdatePrivacy(ctx context.Context, userID int64, friends, answers string) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	pf, err := domain.ParsePrivacy(friends)
	if err != nil {
		return err
	}
	pa, err := domain.ParsePrivacy(answers)
	if err != nil {
		return err
	}
	return storageErr("update privacy", s.users.UpdatePrivacy(ctx, userID, pf, pa))
}

// GrantAdmin toggles the admin role by email; used by operators.
func (s *AuthService) GrantAdmin(ctx context.Context, email string, admin bool) (domain.User, error) {
	u, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, storageErr("load user", err)
	}
	if err := s.users.SetAdmin(ctx, u.ID, admin); err != nil {
		return domain.User{}, storageErr("set admin", err)
	}
	u.IsAdmin = admin
	s.log.Info("admin role changed", "user_id", u.ID, "admin", admin)
	return u, nil
}
