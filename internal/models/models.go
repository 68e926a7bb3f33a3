package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer order going through checkout
type Order struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	State        string          `db:"state" json:"state"`
	PaymentState string          `db:"payment_state" json:"payment_state"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Payment represents a single payment attempt against an order.
// SourceToken is the PSP vault token of the stored instrument, if any;
// raw card data is never persisted locally.
type Payment struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	State       string          `db:"state" json:"state"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	SourceToken string          `db:"source_token" json:"source_token,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Checkout correlates a Payment with its PSP transaction for reconciliation.
// Once Finalized is set the record is never touched again.
type Checkout struct {
	ID            int64     `db:"id" json:"id"`
	PaymentID     int64     `db:"payment_id" json:"payment_id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	LastStatus    string    `db:"last_status" json:"last_status"`
	Finalized     bool      `db:"finalized" json:"finalized"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OrderError is a user-visible error attached to an order, e.g. a 3-D Secure
// rejection. Code is stable and translatable by the UI.
type OrderError struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	Code      string    `db:"code" json:"code"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PendingCheckout is the reconciliation work item: a checkout whose payment
// has not reached a terminal state yet.
type PendingCheckout struct {
	CheckoutID    int64  `db:"checkout_id"`
	PaymentID     int64  `db:"payment_id"`
	OrderID       int64  `db:"order_id"`
	TransactionID string `db:"transaction_id"`
}

// Order states
const (
	OrderStateCart     = "cart"
	OrderStateAddress  = "address"
	OrderStatePayment  = "payment"
	OrderStateConfirm  = "confirm"
	OrderStateComplete = "complete"
	OrderStateCanceled = "canceled"
)

// Order payment states, derived from the associated payments
const (
	OrderPaymentStateBalanceDue = "balance_due"
	OrderPaymentStatePaid       = "paid"
	OrderPaymentStateFailed     = "failed"
	OrderPaymentStateVoid       = "void"
)

// Payment states. A payment never transitions backward: reconciliation may
// only move pending to completed or failed, once.
const (
	PaymentStateCheckout  = "checkout"
	PaymentStatePending   = "pending"
	PaymentStateCompleted = "completed"
	PaymentStateFailed    = "failed"
	PaymentStateVoid      = "void"
)
