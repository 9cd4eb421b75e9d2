package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movieflix/db"
	"movieflix/models"
)

const paymentColumns = `id, user_id, gateway_order_id, gateway_payment_id, amount, currency, status, plan_type, created_at`

type PostgresPayments struct {
	db db.DBTX
}

func NewPostgresPayments(conn db.DBTX) *PostgresPayments {
	return &PostgresPayments{db: conn}
}

func (r *PostgresPayments) Create(ctx context.Context, p *models.Payment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO payments (user_id, gateway_order_id, amount, currency, status, plan_type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		p.UserID, p.GatewayOrderID, p.Amount, p.Currency, p.Status, p.PlanType,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresPayments) Complete(ctx context.Context, userID int64, orderID, paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.QueryRowContext(ctx,
		`UPDATE payments SET gateway_payment_id = $1, status = $2
		 WHERE gateway_order_id = $3 AND user_id = $4 AND status = $5
		 RETURNING `+paymentColumns,
		paymentID, models.PaymentCompleted, orderID, userID, models.PaymentPending,
	).Scan(&p.ID, &p.UserID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.Amount, &p.Currency, &p.Status, &p.PlanType, &p.CreatedAt)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("complete payment: %w", err)
	}

	// Nothing pending: tell a missing order apart from a replayed one.
	var status string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM payments WHERE gateway_order_id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return nil, ErrPaymentCompleted
}

func (r *PostgresPayments) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.Amount, &p.Currency, &p.Status, &p.PlanType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
