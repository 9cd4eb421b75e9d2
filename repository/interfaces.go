package repository

import (
	"context"
	"errors"
	"time"

	"movieflix/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrPaymentCompleted = errors.New("payment already completed")

	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, email, passwordHash string) error
}

// PasscodeRepository persists one-time passcodes.
type PasscodeRepository interface {
	Create(ctx context.Context, passcode *models.Passcode) error
	// Latest returns the most recently created passcode whose email or phone
	// matches, restricted to channel.
	Latest(ctx context.Context, email, phone, channel string) (*models.Passcode, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Passcode, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PaymentRepository persists gateway payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	// Complete moves a pending payment owned by userID to completed.
	// ErrNotFound if no such order exists for the user, ErrPaymentCompleted
	// if it was already completed.
	Complete(ctx context.Context, userID int64, orderID, paymentID string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository interface {
	// Current returns the active subscription with the latest end date after now.
	Current(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error)
	CancelActive(ctx context.Context, userID int64) (int64, error)
	Create(ctx context.Context, subscription *models.Subscription) error
}

// Repositories groups the repositories bound to one handle (pool or tx).
type Repositories interface {
	Users() UserRepository
	Passcodes() PasscodeRepository
	Payments() PaymentRepository
	Subscriptions() SubscriptionRepository
}

// Manager vends repositories and runs functions atomically.
type Manager interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}
