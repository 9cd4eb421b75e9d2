package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"movieflix/models"
	"movieflix/repository"
)

// PasscodeRequest identifies who a passcode is for.
type PasscodeRequest struct {
	Email   string
	Phone   string
	Channel string
}

// IssuedPasscode is what the caller learns about a new passcode. Code is
// only filled in development.
type IssuedPasscode struct {
	RequestID string
	ExpiresAt time.Time
	Code      string
}

type VerifyRequest struct {
	PasscodeRequest
	Code      string
	RequestID string
}

type PasscodeOptions struct {
	TTL         time.Duration
	Length      int
	Development bool
}

// PasscodeService issues one-time passcodes and exchanges them for sessions.
type PasscodeService struct {
	store  repository.Manager
	tokens *TokenIssuer
	email  PasscodeSender
	phone  PasscodeSender
	opts   PasscodeOptions
	log    *zap.Logger
	now    func() time.Time
}

func NewPasscodeService(store repository.Manager, tokens *TokenIssuer, email, phone PasscodeSender, opts PasscodeOptions, log *zap.Logger) *PasscodeService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Length <= 0 {
		opts.Length = 6
	}
	return &PasscodeService{
		store:  store,
		tokens: tokens,
		email:  email,
		phone:  phone,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

func normalizeChannel(channel string) (string, error) {
	switch c := strings.ToLower(strings.TrimSpace(channel)); c {
	case "", models.ChannelEmail:
		return models.ChannelEmail, nil
	case models.ChannelPhone:
		return c, nil
	default:
		return "", BadRequest("Unsupported OTP type")
	}
}

func (s *PasscodeService) Issue(ctx context.Context, req PasscodeRequest) (*IssuedPasscode, error) {
	email := NormalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return nil, BadRequest("Email or phone number required")
	}
	channel, err := normalizeChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	code, err := generateCode(s.opts.Length)
	if err != nil {
		return nil, Internal("Failed to send OTP", err)
	}

	p := &models.Passcode{
		RequestID: uuid.NewString(),
		Email:     email,
		Phone:     phone,
		Code:      code,
		Channel:   channel,
		ExpiresAt: s.now().Add(s.opts.TTL).UTC(),
	}
	if err := s.store.Passcodes().Create(ctx, p); err != nil {
		return nil, Internal("Failed to send OTP", err)
	}

	if err := s.dispatch(ctx, p); err != nil {
		if !s.opts.Development {
			return nil, Upstream("Failed to send OTP", err)
		}
		s.log.Warn("passcode dispatch failed", zap.String("request_id", p.RequestID), zap.Error(err))
	}

	issued := &IssuedPasscode{RequestID: p.RequestID, ExpiresAt: p.ExpiresAt}
	if s.opts.Development {
		issued.Code = code
	}
	return issued, nil
}

func (s *PasscodeService) dispatch(ctx context.Context, p *models.Passcode) error {
	if p.Email != "" && s.email != nil {
		if err := s.email.SendPasscode(ctx, p.Email, p.Code, p.ExpiresAt); err != nil {
			return fmt.Errorf("email dispatch: %w", err)
		}
	}
	if p.Phone != "" && s.phone != nil {
		if err := s.phone.SendPasscode(ctx, p.Phone, p.Code, p.ExpiresAt); err != nil {
			return fmt.Errorf("phone dispatch: %w", err)
		}
	}
	return nil
}

// Verify consumes a passcode and signs the owner in, creating the account
// on first use. Without a request id the most recent passcode is used.
func (s *PasscodeService) Verify(ctx context.Context, req VerifyRequest) (*Session, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, BadRequest("OTP required")
	}
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, BadRequest("Email is required for OTP verification")
	}
	channel, err := normalizeChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	p, err := s.lookup(ctx, email, strings.TrimSpace(req.Phone), channel, strings.TrimSpace(req.RequestID))
	if err != nil {
		return nil, err
	}
	if p.Expired(s.now()) {
		return nil, Expired("OTP expired")
	}
	if p.Code != code {
		return nil, Mismatch("Invalid OTP")
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Passcodes().Delete(ctx, p.ID); err != nil {
			return err
		}
		var err error
		user, err = provisionUser(ctx, repos.Users(), email)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// Consumed by a concurrent verification.
			return nil, NotFound("OTP not found")
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, Conflict("Email already registered")
		}
		return nil, Internal("Failed to verify OTP", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, Internal("Failed to verify OTP", err)
	}
	s.log.Info("passcode verified", zap.Int64("user_id", user.ID), zap.String("channel", channel))
	return &Session{Token: token, User: user}, nil
}

func (s *PasscodeService) lookup(ctx context.Context, email, phone, channel, requestID string) (*models.Passcode, error) {
	var (
		p   *models.Passcode
		err error
	)
	if requestID != "" {
		p, err = s.store.Passcodes().GetByRequestID(ctx, requestID)
		if err == nil && (p.Email != email || p.Channel != channel) {
			err = repository.ErrNotFound
		}
	} else {
		p, err = s.store.Passcodes().Latest(ctx, email, phone, channel)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("OTP not found")
		}
		return nil, Internal("Failed to verify OTP", err)
	}
	return p, nil
}

// provisionUser returns the verified account for email, creating it with an
// unusable random password if it does not exist yet.
func provisionUser(ctx context.Context, users repository.UserRepository, email string) (*models.User, error) {
	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsVerified {
			if err := users.MarkVerified(ctx, user.ID); err != nil {
				return nil, err
			}
			user.IsVerified = true
		}
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("random password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = &models.User{Email: email, PasswordHash: string(hash), IsVerified: true}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// generateCode returns a uniformly random numeric code of exactly n digits
// with no leading zero.
func generateCode(n int) (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate passcode: %w", err)
	}
	return v.Add(v, low).String(), nil
}
