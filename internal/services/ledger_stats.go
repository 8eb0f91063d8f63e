package services

import (
	"context"
	"time"

	"github.com/garant/backend/internal/models"
)

// Period is a trailing stats window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Since returns the exclusive lower bound of the window ending at now.
// A month is four weeks.
func (p Period) Since(now time.Time) (int64, error) {
	now = now.In(MoscowTZ)
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1).Unix(), nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7).Unix(), nil
	case PeriodMonth:
		return now.AddDate(0, 0, -28).Unix(), nil
	}
	return 0, ErrInvalidPeriod
}

func (s *LedgerService) scalar(ctx context.Context, query string, args ...any) (int64, error) {
	var v int64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// ClosedDealsSum is the volume of the user's successfully closed deals.
func (s *LedgerService) ClosedDealsSum(ctx context.Context, tg int64) (int64, error) {
	return s.scalar(ctx,
		`SELECT COALESCE(SUM(sum), 0) FROM deals WHERE (buyer = $1 OR seller = $1) AND status = $2`,
		tg, string(models.DealClosed))
}

func (s *LedgerService) ClosedDealsCount(ctx context.Context, tg int64) (int64, error) {
	return s.scalar(ctx,
		`SELECT COUNT(*) FROM deals WHERE (buyer = $1 OR seller = $1) AND status = $2`,
		tg, string(models.DealClosed))
}

func (s *LedgerService) UsersBalanceSum(ctx context.Context) (int64, error) {
	return s.scalar(ctx, `SELECT COALESCE(SUM(balance), 0) FROM users`)
}

func (s *LedgerService) ActiveDealsSum(ctx context.Context) (int64, error) {
	return s.scalar(ctx, `SELECT COALESCE(SUM(sum), 0) FROM deals WHERE `+activeDealFilter)
}

func (s *LedgerService) CountDeals(ctx context.Context) (int64, error) {
	return s.scalar(ctx, `SELECT COUNT(*) FROM deals`)
}

func (s *LedgerService) CountActiveDeals(ctx context.Context) (int64, error) {
	return s.scalar(ctx, `SELECT COUNT(*) FROM deals WHERE `+activeDealFilter)
}

func (s *LedgerService) CountDealsSince(ctx context.Context, period Period) (int64, error) {
	since, err := period.Since(s.now())
	if err != nil {
		return 0, err
	}
	return s.scalar(ctx, `SELECT COUNT(*) FROM deals WHERE create_time > $1`, since)
}

// CountUsersSince counts registrations strictly after the window start.
func (s *LedgerService) CountUsersSince(ctx context.Context, period Period) (int64, error) {
	since, err := period.Since(s.now())
	if err != nil {
		return 0, err
	}
	return s.scalar(ctx, `SELECT COUNT(*) FROM users WHERE reg_time > $1`, since)
}

// UserStats collects the per-user closed deal aggregates.
func (s *LedgerService) UserStats(ctx context.Context, tg int64) (*models.UserStats, error) {
	user, err := s.GetUser(ctx, tg)
	if err != nil || user == nil {
		return nil, err
	}

	stats := &models.UserStats{TgID: tg, Rating: user.Rating}
	if stats.ClosedCount, err = s.ClosedDealsCount(ctx, tg); err != nil {
		return nil, err
	}
	if stats.ClosedSum, err = s.ClosedDealsSum(ctx, tg); err != nil {
		return nil, err
	}
	return stats, nil
}

// DealStats gathers the operator overview in one pass.
func (s *LedgerService) DealStats(ctx context.Context) (*models.DealStats, error) {
	var (
		stats models.DealStats
		err   error
	)
	steps := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&stats.Total, func() (int64, error) { return s.CountDeals(ctx) }},
		{&stats.Active, func() (int64, error) { return s.CountActiveDeals(ctx) }},
		{&stats.ActiveSum, func() (int64, error) { return s.ActiveDealsSum(ctx) }},
		{&stats.Day, func() (int64, error) { return s.CountDealsSince(ctx, PeriodDay) }},
		{&stats.Week, func() (int64, error) { return s.CountDealsSince(ctx, PeriodWeek) }},
		{&stats.Month, func() (int64, error) { return s.CountDealsSince(ctx, PeriodMonth) }},
		{&stats.UsersDay, func() (int64, error) { return s.CountUsersSince(ctx, PeriodDay) }},
		{&stats.UsersWeek, func() (int64, error) { return s.CountUsersSince(ctx, PeriodWeek) }},
		{&stats.UsersMonth, func() (int64, error) { return s.CountUsersSince(ctx, PeriodMonth) }},
		{&stats.BalancesTotal, func() (int64, error) { return s.UsersBalanceSum(ctx) }},
	}
	for _, step := range steps {
		if *step.dst, err = step.fn(); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
