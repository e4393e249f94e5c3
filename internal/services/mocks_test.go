package services

import (
	"github.com/stretchr/testify/mock"
)

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) LogPayment(eventType, paymentID, accountID, amount, status string) {
	m.Called(eventType, paymentID, accountID, amount, status)
}

func (m *MockAuditSink) LogError(paymentID, accountID string, err error) {
	m.Called(paymentID, accountID, err)
}
