package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migrate creates the tables the payment engine depends on. The unique
// index on debt_payments.related_entry_id is the schema-level invariant
// that keeps two payments from ever sharing a mirrored ledger entry.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS debts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			amount NUMERIC(18,2) NOT NULL,
			account_id UUID NOT NULL REFERENCES accounts(id),
			date DATE NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			deleted_at TIMESTAMPTZ,
			revision INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS debt_payments (
			id UUID PRIMARY KEY,
			debt_id UUID NOT NULL REFERENCES debts(id),
			account_id UUID NOT NULL REFERENCES accounts(id),
			amount NUMERIC(18,2) NOT NULL,
			date DATE NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			related_entry_id UUID UNIQUE REFERENCES transactions(id),
			user_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_debt_payments_debt_id ON debt_payments (debt_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_deleted_at ON transactions (deleted_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("Database schema up to date")
	return nil
}
