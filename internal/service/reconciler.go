package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"payment-gateway/internal/models"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordError describes a single checkout that could not be reconciled in a
// pass. It never aborts the batch.
type RecordError struct {
	CheckoutID    int64  `json:"checkout_id"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

// Summary is the result of one reconciliation pass.
type Summary struct {
	Changed int           `json:"changed"`
	Errors  []RecordError `json:"errors,omitempty"`
}

// Reconciler re-queries the PSP for transactions whose settlement status is
// not yet final locally and applies idempotent terminal transitions. Safe to
// invoke concurrently with itself: every transition is guarded per record.
type Reconciler struct {
	gateway     psp.Gateway
	store       ReconcileStore
	events      EventPublisher
	logger      *zap.Logger
	concurrency int
}

// NewReconciler creates a new reconciliation engine
func NewReconciler(gateway psp.Gateway, store ReconcileStore, events EventPublisher, concurrency int) *Reconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{
		gateway:     gateway,
		store:       store,
		events:      events,
		logger:      util.GetLogger(),
		concurrency: concurrency,
	}
}

// UpdateStates runs one reconciliation pass and returns the number of records
// that actually transitioned. A second pass with no PSP-side changes returns
// {changed: 0}. Per-record failures are accumulated; the batch only fails as
// a whole when it cannot start at all, e.g. on a credential failure.
func (r *Reconciler) UpdateStates(ctx context.Context) (*Summary, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.UpdateStates")
	defer span.End()

	util.ReconcileRunsTotal.Inc()

	records, err := r.store.ListPendingCheckouts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if len(records) == 0 {
		return summary, nil
	}

	r.logger.Info("Reconciliation pass started", zap.Int("pending", len(records)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			changed, recErr := r.reconcileRecord(gctx, rec)

			if recErr != nil {
				var authErr *psp.AuthenticationError
				if errors.As(recErr, &authErr) {
					// Credentials are broken for the whole batch.
					return recErr
				}
				util.ReconcileRecordErrorsTotal.Inc()
				mu.Lock()
				summary.Errors = append(summary.Errors, RecordError{
					CheckoutID:    rec.CheckoutID,
					TransactionID: rec.TransactionID,
					Error:         recErr.Error(),
				})
				mu.Unlock()
				return nil
			}

			if changed {
				util.ReconcileChangedTotal.Inc()
				mu.Lock()
				summary.Changed++
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("Reconciliation pass finished",
		zap.Int("changed", summary.Changed),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (r *Reconciler) reconcileRecord(ctx context.Context, rec models.PendingCheckout) (bool, error) {
	result, err := r.gateway.FetchTransaction(ctx, rec.TransactionID)
	if err != nil {
		return false, err
	}

	paymentState, orderPaymentState, final := settlementOutcome(result.Status)
	if !final {
		// Still in flight at the PSP; leave the record pending.
		return false, nil
	}

	changed, err := r.store.FinalizeCheckoutTx(ctx, rec, paymentState, orderPaymentState, result.Status)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	r.logger.Info("Checkout finalized",
		zap.Int64("checkout_id", rec.CheckoutID),
		zap.Int64("payment_id", rec.PaymentID),
		zap.String("psp_status", result.Status),
		zap.String("payment_state", paymentState))

	r.publishOutcome(ctx, rec, paymentState, result.Status)
	return true, nil
}

func (r *Reconciler) publishOutcome(ctx context.Context, rec models.PendingCheckout, paymentState, pspStatus string) {
	if r.events == nil {
		return
	}

	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
	}

	var err error
	if paymentState == models.PaymentStateCompleted {
		base.EventType = models.EventTypePaymentSettled
		err = r.events.PublishPaymentSettled(ctx, &models.PaymentSettledEvent{
			BaseEvent:     base,
			OrderID:       rec.OrderID,
			PaymentID:     rec.PaymentID,
			TransactionID: rec.TransactionID,
		})
	} else {
		base.EventType = models.EventTypePaymentReversed
		err = r.events.PublishPaymentReversed(ctx, &models.PaymentReversedEvent{
			BaseEvent:     base,
			OrderID:       rec.OrderID,
			PaymentID:     rec.PaymentID,
			TransactionID: rec.TransactionID,
			PSPStatus:     pspStatus,
		})
	}
	if err != nil {
		r.logger.Error("Failed to publish reconciliation event", zap.Error(err))
	}
}

// settlementOutcome maps a PSP settlement status to the local terminal
// states. The third return is false while the transaction is still in flight.
func settlementOutcome(status string) (paymentState, orderPaymentState string, final bool) {
	switch status {
	case psp.StatusSettled, psp.StatusSettling:
		return models.PaymentStateCompleted, models.OrderPaymentStatePaid, true
	case psp.StatusVoided, psp.StatusGatewayRejected, psp.StatusProcessorDeclined, psp.StatusSettlementDeclined:
		return models.PaymentStateFailed, models.OrderPaymentStateFailed, true
	default:
		return "", "", false
	}
}
