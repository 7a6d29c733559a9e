package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/stoolap/stoolap/pkg/driver"
)

// The secondary store mirrors the primary schema on the embedded engine.
// The engine assigns INTEGER PRIMARY KEY values itself; price is kept as
// text to preserve decimal precision.
var secondarySchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT,
		email TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name TEXT,
		price TEXT,
		description TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
}

// OpenSecondary opens the secondary store and bootstraps its schema. The
// engine is embedded in-process, so there is no external init script to rely
// on; DSNs are memory:// for a volatile store or file://<path> for a
// persistent one.
func OpenSecondary(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("stoolap", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open secondary store: %w", err)
	}

	for _, stmt := range secondarySchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to bootstrap secondary schema: %w", err)
		}
	}

	return db, nil
}
