package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garant/backend/internal/models"
)

const dealColumns = `id, seller, buyer, sum, status, create_time, info, escrowed`

// activeDealFilter selects deals that are neither terminal nor waiting for the seller.
const activeDealFilter = `status NOT IN ('closed', 'canceled', 'closed_arbitrage', 'waiting_seller')`

// escrowableDealFilter selects deals that may still take the buyer's funds.
const escrowableDealFilter = `status IN ('waiting_seller', 'active')`

func scanDeal(row rowScanner) (*models.Deal, error) {
	var (
		d      models.Deal
		status string
	)
	if err := row.Scan(&d.ID, &d.SellerID, &d.BuyerID, &d.Sum, &status, &d.CreateTime, &d.Info, &d.Escrowed); err != nil {
		return nil, err
	}
	d.Status = models.DealStatus(status)
	return &d, nil
}

// AddDeal inserts a deal in waiting_seller and returns its identifier.
func (s *LedgerService) AddDeal(ctx context.Context, sellerID, buyerID, sum int64, info string, escrowed bool) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO deals (seller, buyer, sum, status, create_time, info, escrowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		sellerID, buyerID, sum, string(models.DealWaitingSeller), s.timestamp(), info, boolToInt(escrowed)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert deal: %w", err)
	}
	return id, nil
}

// GetDeal returns nil when the deal does not exist.
func (s *LedgerService) GetDeal(ctx context.Context, id int64) (*models.Deal, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	deal, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return deal, err
}

// SetDealStatus overwrites the status without any guard. Lifecycle changes
// should go through DealService.
func (s *LedgerService) SetDealStatus(ctx context.Context, id int64, status models.DealStatus) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE deals SET status = $1 WHERE id = $2`, string(status), id))
}

// CompareAndSetDealStatus moves the deal to next only if it is still in
// expected. It returns the row as written, or nil when the guard did not match.
// The returned escrowed flag is read under the row lock, so it reflects any
// escrow committed after the caller's earlier reads.
func (s *LedgerService) CompareAndSetDealStatus(ctx context.Context, id int64, expected, next models.DealStatus) (*models.Deal, error) {
	row := s.q.QueryRowContext(ctx,
		`UPDATE deals SET status = $1 WHERE id = $2 AND status = $3 RETURNING `+dealColumns,
		string(next), id, string(expected))
	deal, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update deal %d status: %w", id, err)
	}
	return deal, nil
}

// MarkEscrowed flags an open deal as funded. It reports false if the deal
// already was funded or has left waiting_seller/active.
func (s *LedgerService) MarkEscrowed(ctx context.Context, id int64) (bool, error) {
	err := affectOne(s.q.ExecContext(ctx,
		`UPDATE deals SET escrowed = 1 WHERE id = $1 AND escrowed = 0 AND `+escrowableDealFilter, id))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *LedgerService) queryDeals(ctx context.Context, query string, args ...any) ([]models.Deal, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *deal)
	}
	return deals, rows.Err()
}

// DealsForUser lists deals where the user is either party.
func (s *LedgerService) DealsForUser(ctx context.Context, tg int64) ([]models.Deal, error) {
	return s.queryDeals(ctx, `SELECT `+dealColumns+` FROM deals WHERE seller = $1 OR buyer = $1 ORDER BY id`, tg)
}

func (s *LedgerService) ArbitrageDeals(ctx context.Context) ([]models.Deal, error) {
	return s.queryDeals(ctx, `SELECT `+dealColumns+` FROM deals WHERE status = $1 ORDER BY id`, string(models.DealArbitrage))
}

func (s *LedgerService) ActiveDeals(ctx context.Context) ([]models.Deal, error) {
	return s.queryDeals(ctx, `SELECT `+dealColumns+` FROM deals WHERE `+activeDealFilter+` ORDER BY id`)
}

// AddDealMessage appends to the deal's communication log.
func (s *LedgerService) AddDealMessage(ctx context.Context, dealID, userID int64, message string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO communicate (deal_id, user_id, message) VALUES ($1, $2, $3)`, dealID, userID, message)
	if err != nil {
		return fmt.Errorf("failed to append deal message: %w", err)
	}
	return nil
}

func (s *LedgerService) DealMessages(ctx context.Context, dealID int64) ([]models.DealMessage, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT deal_id, user_id, message FROM communicate WHERE deal_id = $1`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.DealMessage
	for rows.Next() {
		var m models.DealMessage
		if err := rows.Scan(&m.DealID, &m.UserID, &m.Message); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
