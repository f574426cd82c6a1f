package app

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/shortify/internal/repository"
)

// schema создаёт таблицы при первом запуске; owner_id не ссылается на users,
// так как ссылки создают и анонимные пользователи
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		first_name VARCHAR(100),
		last_name VARCHAR(100),
		email VARCHAR(100) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_verified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id BIGSERIAL PRIMARY KEY,
		original TEXT NOT NULL,
		short VARCHAR(16) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		hit_count BIGINT NOT NULL DEFAULT 0 CHECK (hit_count >= 0),
		expiration_date TIMESTAMPTZ,
		suspended BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id VARCHAR(36) NOT NULL
	)`,
	"CREATE INDEX IF NOT EXISTS links_owner_id_idx ON links (owner_id)",
	"CREATE INDEX IF NOT EXISTS links_original_idx ON links (original)",
}

// DB представляет подключение к базе данных
type DB struct {
	conn *sql.DB
}

// NewDB создаёт новое подключение к базе данных и применяет схему.
// Пустой DSN означает, что база данных не используется.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, nil
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &DB{conn: conn}, nil
}

var _ repository.Database = (*DB)(nil)

// PingContext проверяет соединение с базой данных
func (db *DB) PingContext(ctx context.Context) error {
	if db == nil || db.conn == nil {
		return sql.ErrConnDone
	}
	return db.conn.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// ExecContext выполняет SQL-запрос с аргументами
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryContext выполняет SQL-запрос и возвращает множество строк
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext выполняет SQL-запрос и возвращает одну строку
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}
