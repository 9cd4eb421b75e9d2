package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movieflix/db"
	"movieflix/models"
)

type PostgresUsers struct {
	db db.DBTX
}

func NewPostgresUsers(conn db.DBTX) *PostgresUsers {
	return &PostgresUsers{db: conn}
}

func (r *PostgresUsers) Create(ctx context.Context, user *models.User) error {
	var phone sql.NullString
	if user.Phone != nil {
		phone = nullable(*user.Phone)
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, phone, is_verified)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		user.Email, user.PasswordHash, phone, user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, phone, is_verified, created_at FROM users WHERE id = $1`, id)
}

func (r *PostgresUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, phone, is_verified, created_at FROM users WHERE email = $1`, email)
}

func (r *PostgresUsers) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Phone, &user.IsVerified, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUsers) MarkVerified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresUsers) Update(ctx context.Context, id int64, email, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $1, password_hash = $2 WHERE id = $3`,
		email, passwordHash, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
