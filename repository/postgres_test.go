package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"movieflix/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, mock
}

func TestUsersCreate_Success(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresUsers(conn)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*phone,\s*is_verified\)`).
		WithArgs("a@x.com", "hash", sql.NullString{}, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	u := &models.User{Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersCreate_DuplicateEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresUsers(conn)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUsersCreate_DBError(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresUsers(conn)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
	require.ErrorContains(t, err, "insert user: db down")
	require.False(t, errors.Is(err, ErrDuplicateEmail))
}

func TestUsersGetByEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresUsers(conn)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*phone,\s*is_verified,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "phone", "is_verified", "created_at"}).
			AddRow(int64(3), "a@x.com", "hash", nil, true, now))

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, int64(3), u.ID)
	require.Nil(t, u.Phone)
	require.True(t, u.IsVerified)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsersUpdate(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresUsers(conn)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+email\s*=\s*\$1,\s*password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3`).
		WithArgs("b@x.com", "h2", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), 3, "b@x.com", "h2"))

	mock.ExpectExec(`UPDATE\s+users`).
		WithArgs("b@x.com", "h2", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Update(context.Background(), 4, "b@x.com", "h2"), ErrNotFound)

	mock.ExpectExec(`UPDATE\s+users`).
		WillReturnError(&pq.Error{Code: "23505"})
	require.ErrorIs(t, repo.Update(context.Background(), 3, "taken@x.com", "h2"), ErrDuplicateEmail)
}

func TestPasscodesLatest(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresPasscodes(conn)
	now := time.Now()

	cols := []string{"id", "request_id", "email", "phone", "code", "channel", "expires_at", "created_at"}
	mock.ExpectQuery(`(?s)FROM\s+passcodes\s+WHERE\s+\(email\s*=\s*\$1\s+OR\s+phone\s*=\s*\$2\)\s+AND\s+channel\s*=\s*\$3\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s+LIMIT\s+1`).
		WithArgs(sql.NullString{String: "a@x.com", Valid: true}, sql.NullString{}, "email").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(9), "req-1", "a@x.com", "", "531942", "email", now.Add(10*time.Minute), now))

	p, err := repo.Latest(context.Background(), "a@x.com", "", "email")
	require.NoError(t, err)
	require.Equal(t, "531942", p.Code)
	require.Equal(t, "req-1", p.RequestID)

	mock.ExpectQuery(`FROM\s+passcodes`).WillReturnError(sql.ErrNoRows)
	_, err = repo.Latest(context.Background(), "a@x.com", "", "email")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPasscodesDeleteExpired(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresPasscodes(conn)
	now := time.Now()

	mock.ExpectExec(`DELETE\s+FROM\s+passcodes\s+WHERE\s+expires_at\s*<\s*\$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestPaymentsComplete(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresPayments(conn)
	now := time.Now()

	cols := []string{"id", "user_id", "gateway_order_id", "gateway_payment_id", "amount", "currency", "status", "plan_type", "created_at"}
	mock.ExpectQuery(`(?s)^UPDATE\s+payments\s+SET\s+gateway_payment_id\s*=\s*\$1,\s*status\s*=\s*\$2\s+WHERE\s+gateway_order_id\s*=\s*\$3\s+AND\s+user_id\s*=\s*\$4\s+AND\s+status\s*=\s*\$5\s+RETURNING`).
		WithArgs("pay_1", "completed", "order_1", int64(7), "pending").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(7), "order_1", "pay_1", int64(2999), "INR", "completed", "yearly", now))

	p, err := repo.Complete(context.Background(), 7, "order_1", "pay_1")
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, p.Status)
	require.NotNil(t, p.GatewayPaymentID)
	require.Equal(t, "pay_1", *p.GatewayPaymentID)
	require.Equal(t, int64(2999), p.Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentsComplete_MissingAndReplayed(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresPayments(conn)

	mock.ExpectQuery(`UPDATE\s+payments`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT\s+status\s+FROM\s+payments`).
		WithArgs("order_x", int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Complete(context.Background(), 7, "order_x", "pay_1")
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`UPDATE\s+payments`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT\s+status\s+FROM\s+payments`).
		WithArgs("order_1", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

	_, err = repo.Complete(context.Background(), 7, "order_1", "pay_1")
	require.ErrorIs(t, err, ErrPaymentCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentsListByUser(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresPayments(conn)
	now := time.Now()

	cols := []string{"id", "user_id", "gateway_order_id", "gateway_payment_id", "amount", "currency", "status", "plan_type", "created_at"}
	mock.ExpectQuery(`(?s)FROM\s+payments\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), int64(7), "order_2", nil, int64(299), "INR", "pending", "monthly", now).
			AddRow(int64(1), int64(7), "order_1", "pay_1", int64(2999), "INR", "completed", "yearly", now.Add(-time.Hour)))

	payments, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	require.Equal(t, "order_2", payments[0].GatewayOrderID)
	require.Nil(t, payments[0].GatewayPaymentID)
	require.Equal(t, "pay_1", *payments[1].GatewayPaymentID)
}

func TestSubscriptionsCurrentAndCancel(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresSubscriptions(conn)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+subscriptions\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+status\s*=\s*\$2\s+AND\s+end_date\s*>\s*\$3\s+ORDER\s+BY\s+end_date\s+DESC\s+LIMIT\s+1`).
		WithArgs(int64(7), "active", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Current(context.Background(), 7, now)
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(`UPDATE\s+subscriptions\s+SET\s+status\s*=\s*\$1\s+WHERE\s+user_id\s*=\s*\$2\s+AND\s+status\s*=\s*\$3`).
		WithArgs("cancelled", int64(7), "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.CancelActive(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestManagerWithTx_CommitsAllStatements(t *testing.T) {
	conn, mock := newMock(t)
	m := NewPostgresManager(conn)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+subscriptions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT\s+INTO\s+subscriptions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))
	mock.ExpectCommit()

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Subscriptions().CancelActive(ctx, 7); err != nil {
			return err
		}
		return repos.Subscriptions().Create(ctx, &models.Subscription{
			UserID: 7, PlanType: "yearly", Status: models.SubscriptionActive,
			StartDate: now, EndDate: now.AddDate(0, 0, 365), PaymentID: "pay_1", Amount: 2999,
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerWithTx_RollsBackOnInsertFailure(t *testing.T) {
	conn, mock := newMock(t)
	m := NewPostgresManager(conn)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+subscriptions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT\s+INTO\s+subscriptions`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Subscriptions().CancelActive(ctx, 7); err != nil {
			return err
		}
		return repos.Subscriptions().Create(ctx, &models.Subscription{UserID: 7, Status: models.SubscriptionActive})
	})
	require.ErrorIs(t, err, ErrActiveSubscriptionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
