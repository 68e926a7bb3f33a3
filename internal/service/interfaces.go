package service

import (
	"context"
	"time"

	"payment-gateway/internal/models"
)

// The coordinators depend on narrow persistence interfaces so their logic is
// testable without a live database. *store.Store satisfies all of them.

// PurchaseStore is the persistence needed by the submission coordinator.
type PurchaseStore interface {
	AppendOrderError(ctx context.Context, orderID int64, code, message string) error
}

// CompletionStore is the persistence needed by the completion coordinator.
type CompletionStore interface {
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	CompleteOrderTx(ctx context.Context, orderID, paymentID int64, sourceToken, transactionID, pspStatus string) error
}

// ReconcileStore is the persistence needed by the reconciliation engine.
type ReconcileStore interface {
	ListPendingCheckouts(ctx context.Context) ([]models.PendingCheckout, error)
	FinalizeCheckoutTx(ctx context.Context, rec models.PendingCheckout, paymentState, orderPaymentState, pspStatus string) (bool, error)
}

// TokenCache caches PSP client tokens across process restarts and replicas.
type TokenCache interface {
	GetClientToken(ctx context.Context, fingerprint string) (string, error)
	SetClientToken(ctx context.Context, fingerprint, token string, ttl time.Duration) error
}

// EventPublisher publishes payment lifecycle events.
type EventPublisher interface {
	PublishPaymentAuthorized(ctx context.Context, event *models.PaymentAuthorizedEvent) error
	PublishPaymentDeclined(ctx context.Context, event *models.PaymentDeclinedEvent) error
	PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error
	PublishPaymentReversed(ctx context.Context, event *models.PaymentReversedEvent) error
}
