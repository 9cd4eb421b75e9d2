package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"movieflix/models"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	u := &models.User{Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, m.Users().Create(ctx, u))
	require.Equal(t, int64(1), u.ID)

	require.ErrorIs(t, m.Users().Create(ctx, &models.User{Email: "a@x.com"}), ErrDuplicateEmail)

	other := &models.User{Email: "b@x.com"}
	require.NoError(t, m.Users().Create(ctx, other))
	require.ErrorIs(t, m.Users().Update(ctx, other.ID, "a@x.com", "h"), ErrDuplicateEmail)

	require.NoError(t, m.Users().MarkVerified(ctx, u.ID))
	got, err := m.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, got.IsVerified)

	_, err = m.Users().GetByID(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPasscodes_LatestWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	exp := time.Now().Add(time.Minute)

	first := &models.Passcode{RequestID: "r1", Email: "a@x.com", Code: "111111", Channel: models.ChannelEmail, ExpiresAt: exp}
	second := &models.Passcode{RequestID: "r2", Email: "a@x.com", Code: "222222", Channel: models.ChannelEmail, ExpiresAt: exp}
	require.NoError(t, m.Passcodes().Create(ctx, first))
	require.NoError(t, m.Passcodes().Create(ctx, second))

	p, err := m.Passcodes().Latest(ctx, "a@x.com", "", models.ChannelEmail)
	require.NoError(t, err)
	require.Equal(t, "222222", p.Code)

	_, err = m.Passcodes().Latest(ctx, "a@x.com", "", models.ChannelPhone)
	require.ErrorIs(t, err, ErrNotFound)

	byReq, err := m.Passcodes().GetByRequestID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "111111", byReq.Code)
}

func TestMemoryPasscodes_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	now := time.Now()

	require.NoError(t, m.Passcodes().Create(ctx, &models.Passcode{RequestID: "old", Email: "a@x.com", Channel: "email", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, m.Passcodes().Create(ctx, &models.Passcode{RequestID: "new", Email: "a@x.com", Channel: "email", ExpiresAt: now.Add(time.Minute)}))

	n, err := m.Passcodes().DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = m.Passcodes().GetByRequestID(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryWithTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	now := time.Now()

	require.NoError(t, m.Subscriptions().Create(ctx, &models.Subscription{UserID: 7, Status: models.SubscriptionActive, EndDate: now.Add(time.Hour)}))

	err := m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		n, err := repos.Subscriptions().CancelActive(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		return errors.New("insert failed")
	})
	require.Error(t, err)

	cur, err := m.Subscriptions().Current(ctx, 7, now)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionActive, cur.Status)
}

func TestMemorySubscriptions_SingleActive(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	now := time.Now()

	require.NoError(t, m.Subscriptions().Create(ctx, &models.Subscription{UserID: 7, Status: models.SubscriptionActive, EndDate: now.Add(time.Hour)}))
	err := m.Subscriptions().Create(ctx, &models.Subscription{UserID: 7, Status: models.SubscriptionActive, EndDate: now.Add(2 * time.Hour)})
	require.ErrorIs(t, err, ErrActiveSubscriptionExists)
}

func TestMemorySubscriptions_CurrentIgnoresLapsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	now := time.Now()

	require.NoError(t, m.Subscriptions().Create(ctx, &models.Subscription{UserID: 7, Status: models.SubscriptionActive, EndDate: now.Add(-time.Hour)}))

	_, err := m.Subscriptions().Current(ctx, 7, now)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPayments_CompleteOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	p := &models.Payment{UserID: 7, GatewayOrderID: "order_1", Amount: 299, Currency: "INR", Status: models.PaymentPending, PlanType: "monthly"}
	require.NoError(t, m.Payments().Create(ctx, p))

	_, err := m.Payments().Complete(ctx, 8, "order_1", "pay_1")
	require.ErrorIs(t, err, ErrNotFound)

	done, err := m.Payments().Complete(ctx, 7, "order_1", "pay_1")
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, done.Status)

	_, err = m.Payments().Complete(ctx, 7, "order_1", "pay_1")
	require.ErrorIs(t, err, ErrPaymentCompleted)
}
