package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/duitkita/backend/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore issues the mirrored writes against the general ledger. Every
// method runs on the caller's transaction so a payment write and its mirror
// commit or roll back together.
type LedgerStore struct{}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// InsertEntryTx creates a fresh mirror entry at revision 1. The entry's
// note, notes and title columns all carry the same description.
func (s *LedgerStore) InsertEntryTx(tx *sql.Tx, entry *models.LedgerEntry) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, amount, account_id, date, note, notes, title, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, $5, 1, $6, $6)`,
		entry.ID, entry.Amount, entry.AccountID, entry.Date, entry.Title, time.Now())
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// UpdateEntryTx rewrites the mirrored fields, clears any soft-delete
// tombstone and bumps the revision counter.
func (s *LedgerStore) UpdateEntryTx(tx *sql.Tx, entryID string, amount decimal.Decimal, accountID string, date time.Time, description string) error {
	result, err := tx.Exec(`
		UPDATE transactions
		SET amount = $1, account_id = $2, date = $3, note = $4, notes = $4, title = $4,
		    deleted_at = NULL, revision = revision + 1, updated_at = $5
		WHERE id = $6`,
		amount, accountID, date, description, time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMissingMirror
	}
	return nil
}

// SoftDeleteEntryTx tombstones the entry and bumps its revision. The row is
// never hard-deleted so audit history survives the revoke. A missing entry
// is logged but not an error; revoking the payment must not be blocked.
func (s *LedgerStore) SoftDeleteEntryTx(tx *sql.Tx, entryID string) error {
	result, err := tx.Exec(`
		UPDATE transactions
		SET deleted_at = $1, revision = revision + 1, updated_at = $1
		WHERE id = $2`,
		time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("soft delete ledger entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Printf("[LEDGER] mirror entry %s already gone, revoke proceeds", entryID)
	}
	return nil
}
