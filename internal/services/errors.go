package services

import (
	"errors"
	"fmt"

	"github.com/garant/backend/internal/models"
)

var (
	// ErrNotFound is returned by updates that matched no row.
	ErrNotFound = errors.New("not found")

	ErrIllegalTransition   = errors.New("illegal deal transition")
	ErrCapExceeded         = errors.New("coupon activation cap reached")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidDeal         = errors.New("invalid deal")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidPeriod       = errors.New("period must be one of day, week, month")

	ErrDuplicatePayment = errors.New("payment already recorded")
	ErrPaymentStatus    = errors.New("payment status can only move forward")

	// ErrVerificationInconclusive marks a voucher check without a confident answer.
	ErrVerificationInconclusive = errors.New("voucher verification inconclusive")
	ErrVerificationTimeout      = fmt.Errorf("%w: timed out waiting for reply", ErrVerificationInconclusive)
	ErrAlreadyClaimed           = errors.New("cheque already claimed")
	ErrInvalidCode              = errors.New("cheque code is empty")
	ErrRemoteSession            = errors.New("remote session error")
	ErrRateLimited              = errors.New("rate limit exceeded")
)

// IllegalTransitionError describes a rejected deal transition.
type IllegalTransitionError struct {
	DealID  int64
	Current models.DealStatus
	Target  models.DealStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("deal %d: cannot move from %s to %s", e.DealID, e.Current, e.Target)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
