package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Та же логическая схема, что и у SQLite-бэкенда; контроль внешних ключей
// в PostgreSQL включён всегда, отдельной PRAGMA не требуется.
const (
	orderTableDDL = `
CREATE TABLE IF NOT EXISTS "Order" (
    orderId TEXT PRIMARY KEY,
    value BIGINT NOT NULL,
    creationDate TEXT NOT NULL
)`
	itemsTableDDL = `
CREATE TABLE IF NOT EXISTS Items (
    orderId TEXT NOT NULL REFERENCES "Order"(orderId) ON DELETE CASCADE,
    productId BIGINT NOT NULL,
    quantity BIGINT NOT NULL,
    price BIGINT NOT NULL
)`
)

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw-подключение, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// EnsureSchema создаёт обе таблицы, если их ещё нет. Идемпотентна и
// безопасна при каждом старте процесса.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	ddlCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	for _, stmt := range []string{orderTableDDL, itemsTableDDL} {
		if _, err := s.db.ExecContext(ddlCtx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
