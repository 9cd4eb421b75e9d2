package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"movieflix/db"
)

const pqUniqueViolation = "23505"

// PostgresManager vends repositories backed by a Postgres pool.
type PostgresManager struct {
	conn *sql.DB
}

func NewPostgresManager(conn *sql.DB) *PostgresManager {
	return &PostgresManager{conn: conn}
}

func (m *PostgresManager) Users() UserRepository { return &PostgresUsers{db: m.conn} }

func (m *PostgresManager) Passcodes() PasscodeRepository { return &PostgresPasscodes{db: m.conn} }

func (m *PostgresManager) Payments() PaymentRepository { return &PostgresPayments{db: m.conn} }

func (m *PostgresManager) Subscriptions() SubscriptionRepository {
	return &PostgresSubscriptions{db: m.conn}
}

func (m *PostgresManager) Ping(ctx context.Context) error {
	return m.conn.PingContext(ctx)
}

func (m *PostgresManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return db.WithTx(ctx, m.conn, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, txRepositories{tx: tx})
	})
}

type txRepositories struct {
	tx db.DBTX
}

func (r txRepositories) Users() UserRepository { return &PostgresUsers{db: r.tx} }
func (r txRepositories) Passcodes() PasscodeRepository { return &PostgresPasscodes{db: r.tx} }
func (r txRepositories) Payments() PaymentRepository { return &PostgresPayments{db: r.tx} }
func (r txRepositories) Subscriptions() SubscriptionRepository {
	return &PostgresSubscriptions{db: r.tx}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
