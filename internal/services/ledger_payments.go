package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garant/backend/internal/models"
)

// AddPayment records a pending payment. A second record with the same id
// fails with ErrDuplicatePayment.
func (s *LedgerService) AddPayment(ctx context.Context, id string, sum int64, paymentType string, userID int64) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payments (id, sum, type, status, user_id)
		VALUES ($1, $2, $3, $4, $5)`,
		id, sum, paymentType, models.PaymentPending, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment returns nil when the payment does not exist.
func (s *LedgerService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := s.q.QueryRowContext(ctx, `SELECT id, sum, type, status, user_id FROM payments WHERE id = $1`, id).
		Scan(&p.ID, &p.Sum, &p.Type, &p.Status, &p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPaymentStatus moves a payment to a higher status code.
func (s *LedgerService) SetPaymentStatus(ctx context.Context, id string, status int) error {
	err := affectOne(s.q.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE id = $2 AND status < $1`, status, id))
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if payment == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s is %d, requested %d", ErrPaymentStatus, id, payment.Status, status)
}

func (s *LedgerService) PaymentsForUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, sum, type, status, user_id FROM payments WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Sum, &p.Type, &p.Status, &p.UserID); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
