package service

import (
	"context"
	"time"

	"payment-gateway/internal/models"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionService drives the order and payment state machines after a
// submission attempt.
type CompletionService struct {
	store  CompletionStore
	events EventPublisher
	logger *zap.Logger
}

// NewCompletionService creates a new completion service
func NewCompletionService(store CompletionStore, events EventPublisher) *CompletionService {
	return &CompletionService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// CompleteOrder applies a submission outcome to the order. For a failed
// result nothing is mutated and false is returned; the order stays in the
// payment state for retry. For a successful result the checkout record is
// created with the PSP transaction id, the payment moves to pending, and the
// order becomes complete with balance_due, all in one transaction.
func (s *CompletionService) CompleteOrder(ctx context.Context, order *models.Order, result *psp.TransactionResult) (bool, error) {
	ctx, span := util.StartSpan(ctx, "CompletionService.CompleteOrder")
	defer span.End()

	if result == nil || !result.Success {
		return false, nil
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, order.ID)
	if err != nil {
		return false, err
	}

	if err := s.store.CompleteOrderTx(ctx, order.ID, payment.ID, result.VaultToken, result.TransactionID, result.Status); err != nil {
		return false, err
	}

	order.State = models.OrderStateComplete
	order.PaymentState = models.OrderPaymentStateBalanceDue
	payment.State = models.PaymentStatePending

	util.OrdersCompletedTotal.Inc()
	s.logger.Info("Order completed",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
		zap.String("transaction_id", result.TransactionID))

	if s.events != nil {
		event := &models.PaymentAuthorizedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentAuthorized,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			PaymentID:     payment.ID,
			TransactionID: result.TransactionID,
			Amount:        result.Amount,
		}
		if err := s.events.PublishPaymentAuthorized(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentAuthorized event", zap.Error(err))
		}
	}

	return true, nil
}
