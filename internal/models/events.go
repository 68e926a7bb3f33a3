package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePaymentAuthorized  = "PAYMENT_AUTHORIZED"
	EventTypePaymentDeclined    = "PAYMENT_DECLINED"
	EventTypePaymentSettled     = "PAYMENT_SETTLED"
	EventTypePaymentReversed    = "PAYMENT_REVERSED"
	EventTypeReconcileRequested = "RECONCILE_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentAuthorizedEvent published when an order completes with an
// authorized (not yet settled) PSP transaction
type PaymentAuthorizedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	PaymentID     int64           `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// PaymentDeclinedEvent published when the PSP declines a submission or the
// risk policy rejects it
type PaymentDeclinedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	FailureCode string `json:"failure_code"`
}

// PaymentSettledEvent published when reconciliation observes settlement
type PaymentSettledEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
}

// PaymentReversedEvent published when reconciliation observes a void or
// post-authorization decline
type PaymentReversedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	PSPStatus     string `json:"psp_status"`
}

// ReconcileRequestedEvent asks the service to run a reconciliation pass.
// Published by an external scheduler.
type ReconcileRequestedEvent struct {
	BaseEvent
	RequestedBy string `json:"requested_by"`
}
