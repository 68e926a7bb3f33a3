package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payment-gateway/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, total_amount, state, payment_state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.UserID, order.TotalAmount, order.State, order.PaymentState)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderState updates the order state machine position
func (s *Store) UpdateOrderState(ctx context.Context, orderID int64, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET state = $1, updated_at = NOW() WHERE id = $2",
		state, orderID)
	return err
}

// AppendOrderError attaches a user-visible error to an order
func (s *Store) AppendOrderError(ctx context.Context, orderID int64, code, message string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO order_errors (order_id, code, message) VALUES ($1, $2, $3)",
		orderID, code, message)
	return err
}

// GetOrderErrors retrieves the errors attached to an order
func (s *Store) GetOrderErrors(ctx context.Context, orderID int64) ([]models.OrderError, error) {
	var errs []models.OrderError
	err := s.db.SelectContext(ctx, &errs,
		"SELECT * FROM order_errors WHERE order_id = $1 ORDER BY created_at", orderID)
	return errs, err
}
