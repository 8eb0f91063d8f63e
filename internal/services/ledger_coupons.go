package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garant/backend/internal/models"
)

const couponColumns = `id, sum, code, activated, max_activations`

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var c models.Coupon
	if err := row.Scan(&c.ID, &c.Sum, &c.Code, &c.Activated, &c.MaxActivations); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *LedgerService) AddCoupon(ctx context.Context, code string, sum int64, maxActivations int) (int64, error) {
	if sum <= 0 || maxActivations <= 0 {
		return 0, ErrInvalidAmount
	}

	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO coupons (sum, code, activated, max_activations)
		VALUES ($1, $2, 0, $3)
		RETURNING id`,
		sum, code, maxActivations).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("coupon %q already exists: %w", code, err)
		}
		return 0, fmt.Errorf("failed to insert coupon: %w", err)
	}
	return id, nil
}

// GetCoupon returns nil when no coupon has the code.
func (s *LedgerService) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := scanCoupon(s.q.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return coupon, err
}

func (s *LedgerService) CanActivateCoupon(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1 AND max_activations > activated)`, code).Scan(&exists)
	return exists, err
}

// ActivateCoupon consumes one activation in a single conditional update and
// returns the coupon as it is after the increment.
func (s *LedgerService) ActivateCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := scanCoupon(s.q.QueryRowContext(ctx, `
		UPDATE coupons SET activated = activated + 1
		WHERE code = $1 AND activated < max_activations
		RETURNING `+couponColumns, code))
	if err == nil {
		return coupon, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to activate coupon: %w", err)
	}

	existing, err := s.GetCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return nil, ErrCapExceeded
}

// RedeemCoupon activates the coupon for a user and credits its sum. Each user
// can redeem a given coupon once; the redemption is recorded as a payment.
func (s *LedgerService) RedeemCoupon(ctx context.Context, tg int64, code string) (int64, error) {
	var credited int64
	err := s.WithTx(ctx, func(tx *LedgerService) error {
		coupon, err := tx.ActivateCoupon(ctx, code)
		if err != nil {
			return err
		}

		ref := fmt.Sprintf("coupon:%d:%d", coupon.ID, tg)
		if err := tx.AddPayment(ctx, ref, coupon.Sum, models.PaymentTypeCoupon, tg); err != nil {
			return err
		}
		if err := tx.SetPaymentStatus(ctx, ref, models.PaymentConfirmed); err != nil {
			return err
		}
		if err := tx.ChangeBalance(ctx, tg, coupon.Sum); err != nil {
			return err
		}

		credited = coupon.Sum
		return nil
	})
	return credited, err
}
