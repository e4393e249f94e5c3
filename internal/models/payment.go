package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single instance of money applied toward a debt. Every live
// payment carries a back-reference to the ledger entry mirroring it; the
// engine is the only writer of RelatedEntryID.
type Payment struct {
	ID             string          `json:"id" db:"id"`
	DebtID         string          `json:"debt_id" db:"debt_id"`
	AccountID      string          `json:"account_id" db:"account_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Date           time.Time       `json:"date" db:"date"`
	Note           string          `json:"note" db:"note"`
	RelatedEntryID *string         `json:"related_entry_id" db:"related_entry_id"`
	UserID         string          `json:"user_id" db:"user_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentChanges carries the fields an amendment may touch. A nil pointer
// leaves the field unchanged. ResetDate forces the paid date back to today
// even though PaidAt is nil (the caller sent an explicit null).
type PaymentChanges struct {
	Amount    *decimal.Decimal
	AccountID *string
	PaidAt    *time.Time
	ResetDate bool
	Note      *string
}
