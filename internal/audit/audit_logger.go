package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	PaymentID string    `json:"payment_id"`
	AccountID string    `json:"account_id"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Sink receives payment lifecycle events.
type Sink interface {
	LogPayment(eventType, paymentID, accountID, amount, status string)
	LogError(paymentID, accountID string, err error)
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogPayment(eventType, paymentID, accountID, amount, status string) {
	event := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		PaymentID: paymentID,
		AccountID: accountID,
		Amount:    amount,
		Status:    status,
	}
	a.log(event)
}

func (a *Logger) LogError(paymentID, accountID string, err error) {
	event := Event{
		Timestamp: time.Now(),
		EventType: "ERROR",
		PaymentID: paymentID,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
