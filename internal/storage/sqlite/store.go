package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const defaultConnTimeout = 5 * time.Second

// DDL хранилища: шапка заказа и позиции с каскадным удалением.
// CREATE TABLE IF NOT EXISTS делает инициализацию идемпотентной.
const (
	orderTableDDL = `
CREATE TABLE IF NOT EXISTS "Order" (
    orderId TEXT PRIMARY KEY,
    value INTEGER NOT NULL,
    creationDate TEXT NOT NULL
)`
	itemsTableDDL = `
CREATE TABLE IF NOT EXISTS Items (
    orderId TEXT NOT NULL,
    productId INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    price INTEGER NOT NULL,
    FOREIGN KEY(orderId) REFERENCES "Order"(orderId) ON DELETE CASCADE
)`
)

// Store оборачивает единственную SQLite-сессию процесса.
type Store struct {
	db *sqlx.DB
}

// Open открывает файл базы (создавая каталог при необходимости) и
// ограничивает пул одним соединением: движок сам сериализует запись,
// а PRAGMA действует ровно на эту сессию.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Флаг в DSN дублирует PRAGMA из EnsureSchema: контроль внешних ключей
	// переживёт пересоздание соединения внутри пула.
	db, err := sqlx.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw-подключение, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// EnsureSchema включает контроль внешних ключей и создаёт обе таблицы,
// если их ещё нет. Безопасно вызывать при каждом старте процесса; данные
// существующих таблиц не затрагиваются. Ошибка здесь фатальна для запуска.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}

	ddlCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", orderTableDDL, itemsTableDDL} {
		if _, err := s.db.ExecContext(ddlCtx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store is not initialized")
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
