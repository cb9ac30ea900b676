package app

import (
	"fmt"
	"os"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config содержит конфигурацию сервиса заказов.
type Config struct {
	// Адрес HTTP-сервера.
	HTTPAddr string
	// Драйвер хранилища: sqlite, postgres или memory.
	StorageDriver string
	// Путь к файлу базы SQLite.
	SQLitePath string
	// DSN PostgreSQL; используется только при StorageDriver=postgres.
	PostgresDSN string
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":3000",
		StorageDriver: DriverSQLite,
		SQLitePath:    "data/database.sqlite",
		PostgresDSN:   "",
	}
}

// ReadConfig читает конфигурацию из переменных окружения,
// отсутствующие значения берутся из DefaultConfig.
func ReadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ORDERS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORDERS_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := os.Getenv("ORDERS_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("ORDERS_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}

	return cfg
}

// Validate проверяет согласованность конфигурации до старта сервиса.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres dsn is required for postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver: %q", c.StorageDriver)
	}
	return nil
}
