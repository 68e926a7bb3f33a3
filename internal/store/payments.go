package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payment-gateway/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// CreatePayment creates a new payment record in the checkout state
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, state, amount, source_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, payment, query,
		payment.OrderID, payment.State, payment.Amount, payment.SourceToken)
}

// GetPaymentByOrderID retrieves the latest payment for an order
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetCheckoutByPaymentID retrieves the checkout record for a payment
func (s *Store) GetCheckoutByPaymentID(ctx context.Context, paymentID int64) (*models.Checkout, error) {
	var checkout models.Checkout
	err := s.db.GetContext(ctx, &checkout,
		"SELECT * FROM checkouts WHERE payment_id = $1", paymentID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

// CompleteOrderTx performs the completion unit atomically: the payment moves
// from checkout to pending, the checkout record is created with the PSP
// transaction id, and the order becomes complete with balance_due. Either all
// writes commit or none do.
func (s *Store) CompleteOrderTx(ctx context.Context, orderID, paymentID int64, sourceToken, transactionID, pspStatus string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE payments SET state = $1, source_token = $2, updated_at = NOW() WHERE id = $3 AND state = $4",
		models.PaymentStatePending, sourceToken, paymentID, models.PaymentStateCheckout)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("payment %d is not in checkout state", paymentID)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO checkouts (payment_id, transaction_id, last_status) VALUES ($1, $2, $3)",
		paymentID, transactionID, pspStatus)
	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET state = $1, payment_state = $2, updated_at = NOW() WHERE id = $3",
		models.OrderStateComplete, models.OrderPaymentStateBalanceDue, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return tx.Commit()
}

// ListPendingCheckouts returns the checkouts whose payments await a terminal
// settlement status.
func (s *Store) ListPendingCheckouts(ctx context.Context) ([]models.PendingCheckout, error) {
	var records []models.PendingCheckout
	err := s.db.SelectContext(ctx, &records, `
		SELECT c.id AS checkout_id, c.payment_id, p.order_id, c.transaction_id
		FROM checkouts c
		JOIN payments p ON p.id = c.payment_id
		WHERE p.state = $1 AND NOT c.finalized
		ORDER BY c.id`,
		models.PaymentStatePending)
	return records, err
}

// FinalizeCheckoutTx applies a terminal settlement outcome to one record.
// The payment update is guarded on the state still being pending, so a
// concurrent pass that already finalized the record turns this into a no-op.
// Returns whether the record actually transitioned.
func (s *Store) FinalizeCheckoutTx(ctx context.Context, rec models.PendingCheckout, paymentState, orderPaymentState, pspStatus string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE payments SET state = $1, updated_at = NOW() WHERE id = $2 AND state = $3",
		paymentState, rec.PaymentID, models.PaymentStatePending)
	if err != nil {
		return false, fmt.Errorf("failed to update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Already finalized by a concurrent pass.
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE checkouts SET last_status = $1, finalized = TRUE, updated_at = NOW() WHERE id = $2",
		pspStatus, rec.CheckoutID)
	if err != nil {
		return false, fmt.Errorf("failed to update checkout: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET payment_state = $1, updated_at = NOW() WHERE id = $2",
		orderPaymentState, rec.OrderID)
	if err != nil {
		return false, fmt.Errorf("failed to update order payment state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
