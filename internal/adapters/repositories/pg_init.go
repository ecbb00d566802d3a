package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema for address reference data.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAddressesQuery := `
	CREATE TABLE IF NOT EXISTS addresses (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		official_label TEXT NOT NULL,
		street_name TEXT NOT NULL DEFAULT '',
		street_number TEXT NOT NULL DEFAULT '',
		postcode TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		lon DOUBLE PRECISION NOT NULL DEFAULT 0,
		lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		door_code TEXT,
		has_mailbox_access BOOLEAN NOT NULL DEFAULT FALSE,
		driver_notes TEXT,
		last_updated_by TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (company_id, official_label)
	);
	`

	createLabelIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_addresses_company_label
	ON addresses (company_id, lower(official_label));
	`

	createStreetIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_addresses_company_street
	ON addresses (company_id, lower(street_name), street_number);
	`

	statements := []string{
		createAddressesQuery,
		createLabelIndexQuery,
		createStreetIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
