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

const passcodeColumns = `id, request_id, COALESCE(email, ''), COALESCE(phone, ''), code, channel, expires_at, created_at`

type PostgresPasscodes struct {
	db db.DBTX
}

func NewPostgresPasscodes(conn db.DBTX) *PostgresPasscodes {
	return &PostgresPasscodes{db: conn}
}

func (r *PostgresPasscodes) Create(ctx context.Context, p *models.Passcode) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO passcodes (request_id, email, phone, code, channel, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		p.RequestID, nullable(p.Email), nullable(p.Phone), p.Code, p.Channel, p.ExpiresAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert passcode: %w", err)
	}
	return nil
}

func (r *PostgresPasscodes) Latest(ctx context.Context, email, phone, channel string) (*models.Passcode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+passcodeColumns+` FROM passcodes
		 WHERE (email = $1 OR phone = $2) AND channel = $3
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		nullable(email), nullable(phone), channel,
	)
	return scanPasscode(row)
}

func (r *PostgresPasscodes) GetByRequestID(ctx context.Context, requestID string) (*models.Passcode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+passcodeColumns+` FROM passcodes WHERE request_id = $1`, requestID)
	return scanPasscode(row)
}

func (r *PostgresPasscodes) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passcodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete passcode: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresPasscodes) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passcodes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge passcodes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanPasscode(row *sql.Row) (*models.Passcode, error) {
	var p models.Passcode
	err := row.Scan(&p.ID, &p.RequestID, &p.Email, &p.Phone, &p.Code, &p.Channel, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select passcode: %w", err)
	}
	return &p, nil
}
