package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a row in the general expense ledger. Entries mirrored from
// debt payments keep Note, Notes and Title identical; Revision increases on
// every mutation so readers can detect concurrent amendments.
type LedgerEntry struct {
	ID        string          `json:"id" db:"id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	AccountID string          `json:"account_id" db:"account_id"`
	Date      time.Time       `json:"date" db:"date"`
	Note      string          `json:"note" db:"note"`
	Notes     string          `json:"notes" db:"notes"`
	Title     string          `json:"title" db:"title"`
	DeletedAt *time.Time      `json:"deleted_at" db:"deleted_at"` // soft-delete tombstone
	Revision  int             `json:"revision" db:"revision"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
