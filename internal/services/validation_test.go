package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type paymentRequest struct {
	AccountID string `validate:"required"`
	DebtID    string `validate:"required,uuid4"`
	Note      string `validate:"max=200"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		valid := paymentRequest{
			AccountID: "acct1",
			DebtID:    "0191d7a3-6b55-4a3e-9a50-5f3c5f6b8a01",
			Note:      "bulan ke-3",
		}

		err := vh.ValidateStruct(&valid)
		assert.NoError(t, err)
	})

	t.Run("missing required fields", func(t *testing.T) {
		invalid := paymentRequest{
			Note: "bulan ke-3",
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2) // AccountID, DebtID
	})

	t.Run("malformed debt id", func(t *testing.T) {
		invalid := paymentRequest{
			AccountID: "acct1",
			DebtID:    "not-a-uuid",
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "DebtID", validationErrors[0].Field())
		assert.Equal(t, "uuid4", validationErrors[0].Tag())
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		invalid := paymentRequest{DebtID: "not-a-uuid"}

		validationErr := vh.ValidateStruct(&invalid)
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "AccountID")
		assert.Contains(t, response.Details, "DebtID")
	})
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Amount int `json:"amount"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"amount": 500}`))
		w := httptest.NewRecorder()

		var dst payload
		ok := decodeJSONBody(w, r, &dst)
		assert.True(t, ok)
		assert.Equal(t, 500, dst.Amount)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"amount": 500, "extra": true}`))
		w := httptest.NewRecorder()

		var dst payload
		ok := decodeJSONBody(w, r, &dst)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("trailing JSON rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"amount": 500}{"amount": 600}`))
		w := httptest.NewRecorder()

		var dst payload
		ok := decodeJSONBody(w, r, &dst)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
