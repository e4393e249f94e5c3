package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/duitkita/backend/internal/models"
)

func TestLedgerStore_InsertEntryTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewLedgerStore()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("inserts at revision 1 with all three description fields", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		entry := &models.LedgerEntry{
			ID:        "entry1",
			Amount:    decimal.NewFromInt(500000),
			AccountID: "acct1",
			Date:      date,
			Title:     "Pay debt: Kartu Kredit",
		}

		mock.ExpectExec("INSERT INTO transactions \\(id, amount, account_id, date, note, notes, title, revision, created_at, updated_at\\) VALUES \\(\\$1, \\$2, \\$3, \\$4, \\$5, \\$5, \\$5, 1, \\$6, \\$6\\)").
			WithArgs("entry1", entry.Amount, "acct1", date, "Pay debt: Kartu Kredit", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.InsertEntryTx(tx, entry)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerStore_UpdateEntryTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewLedgerStore()
	date := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(600000)

	t.Run("rewrites fields, clears tombstone, bumps revision", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE transactions SET amount = \\$1, account_id = \\$2, date = \\$3, note = \\$4, notes = \\$4, title = \\$4, deleted_at = NULL, revision = revision \\+ 1, updated_at = \\$5 WHERE id = \\$6").
			WithArgs(amount, "acct2", date, "Pay debt: Kartu Kredit", sqlmock.AnyArg(), "entry1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.UpdateEntryTx(tx, "entry1", amount, "acct2", date, "Pay debt: Kartu Kredit")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means the mirror is gone", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 0))

		err := store.UpdateEntryTx(tx, "entry1", amount, "acct2", date, "Pay debt: Kartu Kredit")
		assert.ErrorIs(t, err, ErrMissingMirror)
	})
}

func TestLedgerStore_SoftDeleteEntryTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewLedgerStore()

	t.Run("tombstones and bumps revision", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE transactions SET deleted_at = \\$1, revision = revision \\+ 1, updated_at = \\$1 WHERE id = \\$2").
			WithArgs(sqlmock.AnyArg(), "entry1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.SoftDeleteEntryTx(tx, "entry1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already-gone entry is not an error", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 0))

		err := store.SoftDeleteEntryTx(tx, "entry1")
		assert.NoError(t, err)
	})
}
