// Package database provides database connection management and utilities.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const (
	// DriverPostgres selects lib/pq.
	DriverPostgres = "postgres"
	// DriverMySQL selects go-sql-driver/mysql. DSNs need parseTime=true.
	DriverMySQL = "mysql"
)

// pingTimeout bounds the connectivity check done by Connect.
const pingTimeout = 5 * time.Second

// ErrUnsupportedDriver is returned for drivers the card store has no queries for.
var ErrUnsupportedDriver = fmt.Errorf("unsupported database driver")

// Config holds database configuration settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// ValidateDriver reports ErrUnsupportedDriver unless driver is postgres or mysql.
func ValidateDriver(driver string) error {
	switch driver {
	case DriverPostgres, DriverMySQL:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// Connect opens a pool for one of the supported drivers and checks it with a ping.
func Connect(cfg Config) (*sql.DB, error) {
	if err := ValidateDriver(cfg.Driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
