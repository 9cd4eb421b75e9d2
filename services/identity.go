package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"movieflix/models"
	"movieflix/repository"
)

const MinPasswordLength = 6

// Session is a freshly issued token together with the identity it names.
type Session struct {
	Token string
	User  *models.User
}

// IdentityService handles password accounts and profiles.
type IdentityService struct {
	store  repository.Manager
	tokens *TokenIssuer
	log    *zap.Logger
}

func NewIdentityService(store repository.Manager, tokens *TokenIssuer, log *zap.Logger) *IdentityService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityService{store: store, tokens: tokens, log: log}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *IdentityService) Signup(ctx context.Context, email, password, phone string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, BadRequest("Email and password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("Signup failed", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if phone = strings.TrimSpace(phone); phone != "" {
		user.Phone = &phone
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, Conflict("Email already registered")
		}
		return nil, Internal("Signup failed", err)
	}

	s.log.Info("user signed up", zap.Int64("user_id", user.ID))
	return s.session(user, "Signup failed")
}

func (s *IdentityService) Signin(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, BadRequest("Email and password required")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthorized("Invalid credentials")
		}
		return nil, Internal("Signin failed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, Unauthorized("Invalid credentials")
	}
	return s.session(user, "Signin failed")
}

func (s *IdentityService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, Internal("Failed to load profile", err)
	}
	return user, nil
}

// UpdateProfile changes email and/or password. Empty arguments are left
// untouched. A new token is issued because tokens embed the email.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID int64, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" && password == "" {
		return nil, BadRequest("Nothing to update")
	}
	if password != "" && len(password) < MinPasswordLength {
		return nil, BadRequest("Password must be at least 6 characters")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, Internal("Profile update failed", err)
	}

	newEmail := user.Email
	if email != "" && email != user.Email {
		existing, err := s.store.Users().GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, Conflict("Email already in use")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, Internal("Profile update failed", err)
		}
		newEmail = email
	}

	newHash := user.PasswordHash
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, Internal("Profile update failed", err)
		}
		newHash = string(hash)
	}

	if err := s.store.Users().Update(ctx, user.ID, newEmail, newHash); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, Conflict("Email already in use")
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("User not found")
		}
		return nil, Internal("Profile update failed", err)
	}

	updated, err := s.store.Users().GetByID(ctx, user.ID)
	if err != nil {
		return nil, Internal("Profile update failed", err)
	}
	return s.session(updated, "Profile update failed")
}

func (s *IdentityService) session(user *models.User, failMsg string) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	return &Session{Token: token, User: user}, nil
}
