package types

import (
	"time"

	oapi "github.com/oapi-codegen/runtime/types"
)

// PaymentStatus represents the state of an M-Pesa payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusTimeout   PaymentStatus = "timeout"
)

// Terminal reports whether the status will no longer change.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusTimeout:
		return true
	}
	return false
}

// Subscription is a premium access subscription. The backend serializes
// start_date and end_date as bare calendar dates.
type Subscription struct {
	ID            int       `json:"id"`
	Plan          string    `json:"plan"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	StartDate     oapi.Date `json:"start_date"`
	EndDate       oapi.Date `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	DaysRemaining int       `json:"days_remaining"`
}

// Payment is an M-Pesa STK push transaction.
type Payment struct {
	Reference    string        `json:"reference"`
	Status       PaymentStatus `json:"status"`
	Amount       float64       `json:"amount"`
	PhoneNumber  string        `json:"phone_number"`
	MpesaReceipt *string       `json:"mpesa_receipt,omitempty"`
	FailReason   *string       `json:"fail_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}
