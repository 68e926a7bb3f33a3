package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-gateway/internal/models"
)

// fakeStore is an in-memory implementation of the coordinator store
// interfaces, mirroring the transactional guarantees of the real store.
type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	orders      map[int64]*models.Order
	payments    map[int64]*models.Payment
	checkouts   map[int64]*models.Checkout
	orderErrors map[int64][]models.OrderError
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:      make(map[int64]*models.Order),
		payments:    make(map[int64]*models.Payment),
		checkouts:   make(map[int64]*models.Checkout),
		orderErrors: make(map[int64][]models.OrderError),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addOrder(order *models.Order) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == 0 {
		order.ID = f.id()
	}
	f.orders[order.ID] = order
	return order
}

func (f *fakeStore) addPayment(payment *models.Payment) *models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment.ID == 0 {
		payment.ID = f.id()
	}
	f.payments[payment.ID] = payment
	return payment
}

func (f *fakeStore) AppendOrderError(ctx context.Context, orderID int64, code, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderErrors[orderID] = append(f.orderErrors[orderID], models.OrderError{
		OrderID: orderID,
		Code:    code,
		Message: message,
	})
	return nil
}

func (f *fakeStore) hasOrderError(orderID int64, code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.orderErrors[orderID] {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (f *fakeStore) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Payment
	for _, p := range f.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("payment not found for order: %d", orderID)
	}
	return latest, nil
}

func (f *fakeStore) CompleteOrderTx(ctx context.Context, orderID, paymentID int64, sourceToken, transactionID, pspStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	payment, ok := f.payments[paymentID]
	if !ok || payment.State != models.PaymentStateCheckout {
		return fmt.Errorf("payment %d is not in checkout state", paymentID)
	}
	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found: %d", orderID)
	}

	payment.State = models.PaymentStatePending
	payment.SourceToken = sourceToken
	f.checkouts[f.id()] = &models.Checkout{
		ID:            f.nextID,
		PaymentID:     paymentID,
		TransactionID: transactionID,
		LastStatus:    pspStatus,
	}
	order.State = models.OrderStateComplete
	order.PaymentState = models.OrderPaymentStateBalanceDue
	return nil
}

func (f *fakeStore) checkoutForPayment(paymentID int64) *models.Checkout {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.checkouts {
		if c.PaymentID == paymentID {
			return c
		}
	}
	return nil
}

func (f *fakeStore) ListPendingCheckouts(ctx context.Context) ([]models.PendingCheckout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []models.PendingCheckout
	for _, c := range f.checkouts {
		payment := f.payments[c.PaymentID]
		if payment == nil || payment.State != models.PaymentStatePending || c.Finalized {
			continue
		}
		records = append(records, models.PendingCheckout{
			CheckoutID:    c.ID,
			PaymentID:     c.PaymentID,
			OrderID:       payment.OrderID,
			TransactionID: c.TransactionID,
		})
	}
	return records, nil
}

func (f *fakeStore) FinalizeCheckoutTx(ctx context.Context, rec models.PendingCheckout, paymentState, orderPaymentState, pspStatus string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	payment, ok := f.payments[rec.PaymentID]
	if !ok || payment.State != models.PaymentStatePending {
		return false, nil
	}

	payment.State = paymentState
	if checkout, ok := f.checkouts[rec.CheckoutID]; ok {
		checkout.LastStatus = pspStatus
		checkout.Finalized = true
	}
	if order, ok := f.orders[rec.OrderID]; ok {
		order.PaymentState = orderPaymentState
	}
	return true, nil
}

// fakeTokenCache is an in-memory TokenCache.
type fakeTokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
	gets   int
	sets   int
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{tokens: make(map[string]string)}
}

func (f *fakeTokenCache) GetClientToken(ctx context.Context, fingerprint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.tokens[fingerprint], nil
}

func (f *fakeTokenCache) SetClientToken(ctx context.Context, fingerprint, token string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.tokens[fingerprint] = token
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu         sync.Mutex
	authorized []*models.PaymentAuthorizedEvent
	declined   []*models.PaymentDeclinedEvent
	settled    []*models.PaymentSettledEvent
	reversed   []*models.PaymentReversedEvent
}

func (f *fakePublisher) PublishPaymentAuthorized(ctx context.Context, event *models.PaymentAuthorizedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized = append(f.authorized, event)
	return nil
}

func (f *fakePublisher) PublishPaymentDeclined(ctx context.Context, event *models.PaymentDeclinedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined = append(f.declined, event)
	return nil
}

func (f *fakePublisher) PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, event)
	return nil
}

func (f *fakePublisher) PublishPaymentReversed(ctx context.Context, event *models.PaymentReversedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reversed = append(f.reversed, event)
	return nil
}
