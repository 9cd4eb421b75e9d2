package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"movieflix/db"
	"movieflix/models"
)

type PostgresSubscriptions struct {
	db db.DBTX
}

func NewPostgresSubscriptions(conn db.DBTX) *PostgresSubscriptions {
	return &PostgresSubscriptions{db: conn}
}

func (r *PostgresSubscriptions) Current(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, plan_type, status, start_date, end_date, COALESCE(payment_id, ''), amount, created_at
		 FROM subscriptions
		 WHERE user_id = $1 AND status = $2 AND end_date > $3
		 ORDER BY end_date DESC
		 LIMIT 1`,
		userID, models.SubscriptionActive, now,
	).Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.StartDate, &s.EndDate, &s.PaymentID, &s.Amount, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return &s, nil
}

func (r *PostgresSubscriptions) CancelActive(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE user_id = $2 AND status = $3`,
		models.SubscriptionCancelled, userID, models.SubscriptionActive,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel subscriptions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *PostgresSubscriptions) Create(ctx context.Context, s *models.Subscription) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_type, status, start_date, end_date, payment_id, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.UserID, s.PlanType, s.Status, s.StartDate, s.EndDate, nullable(s.PaymentID), s.Amount,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveSubscriptionExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}
