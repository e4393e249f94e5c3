package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duitkita/backend/internal/audit"
	"github.com/duitkita/backend/internal/config"
	"github.com/duitkita/backend/internal/middleware"
	"github.com/duitkita/backend/internal/models"
)

// PaymentService is the debt-payment lifecycle engine. Each operation runs
// as a single database transaction spanning the payment row and its
// mirrored ledger entry: either both sides change or neither does.
type PaymentService struct {
	db        *sql.DB
	redis     *redis.Client
	ledger    *LedgerStore
	audit     audit.Sink
	validator *ValidationHelper
	cfg       *config.PaymentsConfig
	loc       *time.Location
}

func NewPaymentService(db *sql.DB, redisClient *redis.Client, cfg *config.PaymentsConfig) *PaymentService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("[PAYMENT] Unknown timezone %q, falling back to UTC", cfg.Timezone)
		loc = time.UTC
	}
	return &PaymentService{
		db:        db,
		redis:     redisClient,
		ledger:    NewLedgerStore(),
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
		cfg:       cfg,
		loc:       loc,
	}
}

// RecordPayment creates a payment and its mirrored ledger entry in one
// transaction. The returned payment carries the new mirror's id; a payment
// never exists without its mirror.
func (s *PaymentService) RecordPayment(ctx context.Context, debtID, accountID string, amount decimal.Decimal, paidAt *time.Time, note, actor string) (*models.Payment, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "account_id", Reason: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	date := s.normalizeDate(paidAt)
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	title := s.debtTitleTx(tx, debtID)
	description := BuildDescription(title, note)

	entry := &models.LedgerEntry{
		ID:        uuid.New().String(),
		Amount:    amount,
		AccountID: accountID,
		Date:      date,
		Title:     description,
		Revision:  1,
	}
	if err := s.ledger.InsertEntryTx(tx, entry); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:             uuid.New().String(),
		DebtID:         debtID,
		AccountID:      accountID,
		Amount:         amount,
		Date:           date,
		Note:           note,
		RelatedEntryID: &entry.ID,
		UserID:         actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err = tx.Exec(`
		INSERT INTO debt_payments (id, debt_id, account_id, amount, date, note, related_entry_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		payment.ID, payment.DebtID, payment.AccountID, payment.Amount, payment.Date,
		payment.Note, entry.ID, payment.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	s.audit.LogPayment("PAYMENT_RECORDED", payment.ID, accountID, amount.String(), "SUCCESS")
	return payment, nil
}

// AmendPayment merges changes onto an existing payment and keeps the mirror
// in lock-step. A mirror write clears any soft-delete tombstone, so a
// revoked-then-amended entry comes back to life. When nothing actually
// changed, the mirror is left untouched and its revision does not move.
func (s *PaymentService) AmendPayment(ctx context.Context, paymentID string, changes models.PaymentChanges, actor string) (*models.Payment, error) {
	if changes.Amount != nil && !changes.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if changes.AccountID != nil && *changes.AccountID == "" {
		return nil, &ValidationError{Field: "account_id", Reason: "cannot be cleared"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.lockPayment(tx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.RelatedEntryID == nil {
		s.audit.LogError(payment.ID, payment.AccountID, ErrMissingMirror)
		return nil, ErrMissingMirror
	}

	changed := false
	if changes.Amount != nil && !changes.Amount.Equal(payment.Amount) {
		payment.Amount = *changes.Amount
		changed = true
	}
	if changes.AccountID != nil && *changes.AccountID != payment.AccountID {
		payment.AccountID = *changes.AccountID
		changed = true
	}
	if changes.PaidAt != nil || changes.ResetDate {
		newDate := s.normalizeDate(changes.PaidAt)
		if !newDate.Equal(payment.Date) {
			payment.Date = newDate
			changed = true
		}
	}
	if changes.Note != nil && *changes.Note != payment.Note {
		payment.Note = *changes.Note
		changed = true
	}

	if !changed {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit amend: %w", err)
		}
		return payment, nil
	}

	title := s.debtTitleTx(tx, payment.DebtID)
	description := BuildDescription(title, payment.Note)
	if err := s.ledger.UpdateEntryTx(tx, *payment.RelatedEntryID, payment.Amount, payment.AccountID, payment.Date, description); err != nil {
		if errors.Is(err, ErrMissingMirror) {
			s.audit.LogError(payment.ID, payment.AccountID, err)
		}
		return nil, err
	}

	now := time.Now()
	_, err = tx.Exec(`
		UPDATE debt_payments
		SET account_id = $1, amount = $2, date = $3, note = $4, updated_at = $5
		WHERE id = $6`,
		payment.AccountID, payment.Amount, payment.Date, payment.Note, now, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	payment.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit amend: %w", err)
	}

	s.audit.LogPayment("PAYMENT_AMENDED", payment.ID, payment.AccountID, payment.Amount.String(), "SUCCESS")
	return payment, nil
}

// RevokePayment soft-deletes the mirrored ledger entry, then removes the
// payment row. The mirror stays queryable for audit history; a missing
// mirror never blocks the revoke.
func (s *PaymentService) RevokePayment(ctx context.Context, paymentID, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.lockPayment(tx, paymentID)
	if err != nil {
		return err
	}

	if payment.RelatedEntryID != nil {
		if err := s.ledger.SoftDeleteEntryTx(tx, *payment.RelatedEntryID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM debt_payments WHERE id = $1`, payment.ID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke: %w", err)
	}

	s.audit.LogPayment("PAYMENT_REVOKED", payment.ID, payment.AccountID, payment.Amount.String(), "SUCCESS")
	return nil
}

// lockPayment loads a payment row FOR UPDATE so concurrent amendments of
// the same payment serialize at the storage layer.
func (s *PaymentService) lockPayment(tx *sql.Tx, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	var relatedEntryID sql.NullString
	err := tx.QueryRow(`
		SELECT id, debt_id, account_id, amount, date, note, related_entry_id, user_id
		FROM debt_payments
		WHERE id = $1
		FOR UPDATE`, paymentID).Scan(
		&payment.ID, &payment.DebtID, &payment.AccountID, &payment.Amount,
		&payment.Date, &payment.Note, &relatedEntryID, &payment.UserID)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if relatedEntryID.Valid {
		payment.RelatedEntryID = &relatedEntryID.String
	}
	return &payment, nil
}

// debtTitleTx resolves the debt title for descriptions. A missing debt or a
// failed lookup degrades to the configured generic title; the payment is
// never failed over its description.
func (s *PaymentService) debtTitleTx(tx *sql.Tx, debtID string) string {
	var title string
	err := tx.QueryRow(`SELECT title FROM debts WHERE id = $1`, debtID).Scan(&title)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PAYMENT] Debt title lookup failed for %s: %v", debtID, err)
		}
		return s.cfg.DefaultDebtTitle
	}
	if title == "" {
		return s.cfg.DefaultDebtTitle
	}
	return title
}

// normalizeDate returns the paid date as midnight in the reference
// timezone, defaulting to today when the caller omitted it.
func (s *PaymentService) normalizeDate(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		now := time.Now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// ---------------------------------------------------------------------------
// HTTP surface
// ---------------------------------------------------------------------------

// CreatePayment records a payment against a debt
// @Summary Record a debt payment
// @Description Record money applied to a debt; a mirrored expense entry is created atomically
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param debtId path string true "Debt ID"
// @Param payment body object{account_id=string,amount=number,paid_at=string,note=string} true "Payment data"
// @Success 201 {object} models.Payment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /debts/{debtId}/payments [post]
func (s *PaymentService) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok || actor == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		AccountID string          `json:"account_id" validate:"required"`
		Amount    decimal.Decimal `json:"amount"`
		PaidAt    string          `json:"paid_at"`
		Note      string          `json:"note"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		SendErrorResponse(w, "Invalid paid_at date", http.StatusBadRequest, nil)
		return
	}

	debtID := chi.URLParam(r, "debtId")

	// Idempotency guard: a replayed key returns the original payment
	// instead of minting a second mirror.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && s.redis != nil {
		if existingID, err := s.redis.Get(r.Context(), s.idemCacheKey(actor, idemKey)).Result(); err == nil {
			existing, err := s.getPayment(r.Context(), existingID)
			if err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": true,
					"payment": existing,
					"message": "Payment already recorded",
				})
				return
			}
			log.Printf("[PAYMENT] Idempotency hit for key %s but payment %s missing: %v", idemKey, existingID, err)
		}
	}

	payment, err := s.RecordPayment(r.Context(), debtID, req.AccountID, req.Amount, paidAt, req.Note, actor)
	if err != nil {
		s.writeEngineError(w, err, "Failed to record payment")
		return
	}

	if idemKey != "" && s.redis != nil {
		if err := s.redis.Set(r.Context(), s.idemCacheKey(actor, idemKey), payment.ID, s.cfg.IdempotencyTTL).Err(); err != nil {
			log.Printf("[PAYMENT] Failed to cache idempotency key: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"payment": payment,
	})
}

// UpdatePayment amends a payment
// @Summary Amend a debt payment
// @Description Change amount, account, date or note; the mirrored entry is updated and resurrected if tombstoned
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /payments/{paymentId} [put]
func (s *PaymentService) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok || actor == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount    *decimal.Decimal `json:"amount"`
		AccountID *string          `json:"account_id"`
		PaidAt    json.RawMessage  `json:"paid_at"`
		Note      *string          `json:"note"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	changes := models.PaymentChanges{
		Amount:    req.Amount,
		AccountID: req.AccountID,
		Note:      req.Note,
	}
	switch {
	case len(req.PaidAt) == 0:
		// date untouched
	case string(req.PaidAt) == "null":
		// explicit null re-defaults to today
		changes.ResetDate = true
	default:
		var raw string
		if err := json.Unmarshal(req.PaidAt, &raw); err != nil {
			SendErrorResponse(w, "Invalid paid_at date", http.StatusBadRequest, nil)
			return
		}
		paidAt, err := parseDate(raw)
		if err != nil || paidAt == nil {
			SendErrorResponse(w, "Invalid paid_at date", http.StatusBadRequest, nil)
			return
		}
		changes.PaidAt = paidAt
	}

	payment, err := s.AmendPayment(r.Context(), chi.URLParam(r, "paymentId"), changes, actor)
	if err != nil {
		s.writeEngineError(w, err, "Failed to update payment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"payment": payment,
	})
}

// DeletePayment revokes a payment
// @Summary Revoke a debt payment
// @Description Remove the payment; its mirrored entry is tombstoned, never hard-deleted
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} ErrorResponse
// @Router /payments/{paymentId} [delete]
func (s *PaymentService) DeletePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok || actor == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	if err := s.RevokePayment(r.Context(), chi.URLParam(r, "paymentId"), actor); err != nil {
		s.writeEngineError(w, err, "Failed to revoke payment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// GetPayment returns a single payment
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} ErrorResponse
// @Router /payments/{paymentId} [get]
func (s *PaymentService) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.getPayment(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		s.writeEngineError(w, err, "Failed to load payment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payment)
}

// ListPayments returns the payments recorded against a debt
// @Summary List payments for a debt
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param debtId path string true "Debt ID"
// @Success 200 {array} models.Payment
// @Router /debts/{debtId}/payments [get]
func (s *PaymentService) ListPayments(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT id, debt_id, account_id, amount, date, note, related_entry_id, user_id, created_at, updated_at
		FROM debt_payments
		WHERE debt_id = $1
		ORDER BY date DESC, created_at DESC`,
		chi.URLParam(r, "debtId"))
	if err != nil {
		log.Printf("[PAYMENT] List query failed: %v", err)
		SendErrorResponse(w, "Failed to list payments", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			log.Printf("[PAYMENT] List scan failed: %v", err)
			SendErrorResponse(w, "Failed to list payments", http.StatusInternalServerError, nil)
			return
		}
		payments = append(payments, payment)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"payments": payments})
}

func (s *PaymentService) getPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, debt_id, account_id, amount, date, note, related_entry_id, user_id, created_at, updated_at
		FROM debt_payments
		WHERE id = $1`, paymentID)
	payment, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return payment, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	var relatedEntryID sql.NullString
	err := row.Scan(
		&payment.ID, &payment.DebtID, &payment.AccountID, &payment.Amount,
		&payment.Date, &payment.Note, &relatedEntryID, &payment.UserID,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if relatedEntryID.Valid {
		payment.RelatedEntryID = &relatedEntryID.String
	}
	return &payment, nil
}

func (s *PaymentService) idemCacheKey(actor, key string) string {
	return "payments:idem:" + actor + ":" + key
}

func (s *PaymentService) writeEngineError(w http.ResponseWriter, err error, message string) {
	switch {
	case IsValidation(err):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, ErrPaymentNotFound):
		SendErrorResponse(w, "Payment not found", http.StatusNotFound, nil)
	default:
		// ErrMissingMirror and storage failures surface as a generic
		// error; the detail goes to logs, not to the caller.
		log.Printf("[PAYMENT] %s: %v", message, err)
		SendErrorResponse(w, message, http.StatusInternalServerError, nil)
	}
}

// parseDate accepts calendar dates and full timestamps.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
