package services

import (
	"context"
	"fmt"
	"log"

	"github.com/garant/backend/internal/audit"
	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/models"
)

// DealService enforces the deal lifecycle over the ledger. It keeps no state
// between calls; every transition runs in its own database transaction and is
// guarded by a compare-and-set on the stored status.
type DealService struct {
	ledger    *LedgerService
	audit     *audit.AuditLogger
	validator *ValidationHelper
	config    *config.DealConfig
}

// CreateDealRequest describes a new deal. With Escrow set the buyer's balance
// is debited together with the insert.
type CreateDealRequest struct {
	SellerID int64  `json:"seller" validate:"required,nefield=BuyerID"`
	BuyerID  int64  `json:"buyer" validate:"required"`
	Amount   int64  `json:"amount"`
	Info     string `json:"info"`
	Escrow   bool   `json:"escrow"`
}

func NewDealService(ledger *LedgerService, cfg *config.DealConfig) *DealService {
	return &DealService{
		ledger:    ledger,
		audit:     audit.NewAuditLogger(),
		validator: NewValidationHelper(),
		config:    cfg,
	}
}

// Create inserts a deal in waiting_seller and returns its identifier.
func (ds *DealService) Create(ctx context.Context, req CreateDealRequest) (int64, error) {
	if req.Amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if err := ds.validator.ValidateStruct(&req); err != nil {
		return 0, err
	}
	if ds.config.MaxInfoLength > 0 && len([]rune(req.Info)) > ds.config.MaxInfoLength {
		return 0, fmt.Errorf("%w: description longer than %d characters", ErrInvalidDeal, ds.config.MaxInfoLength)
	}

	var id int64
	err := ds.ledger.WithTx(ctx, func(tx *LedgerService) error {
		var err error
		if req.Escrow {
			if err = tx.DebitBalance(ctx, req.BuyerID, req.Amount); err != nil {
				return err
			}
		}
		id, err = tx.AddDeal(ctx, req.SellerID, req.BuyerID, req.Amount, req.Info, req.Escrow)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[DEALS] Created deal %d: seller=%d buyer=%d sum=%d escrow=%v", id, req.SellerID, req.BuyerID, req.Amount, req.Escrow)
	if req.Escrow {
		ds.audit.LogDebit(dealRef(id), req.BuyerID, req.Amount, "escrow")
	}
	return id, nil
}

// Escrow debits the buyer for a deal that has not been funded yet.
func (ds *DealService) Escrow(ctx context.Context, dealID int64) error {
	var deal *models.Deal
	err := ds.ledger.WithTx(ctx, func(tx *LedgerService) error {
		var err error
		deal, err = ds.load(ctx, tx, dealID)
		if err != nil {
			return err
		}
		if deal.Status != models.DealWaitingSeller && deal.Status != models.DealActive {
			return fmt.Errorf("deal %d is %s and cannot be escrowed: %w", dealID, deal.Status, ErrIllegalTransition)
		}

		marked, err := tx.MarkEscrowed(ctx, dealID)
		if err != nil {
			return err
		}
		if !marked {
			return fmt.Errorf("deal %d is already escrowed or no longer open: %w", dealID, ErrIllegalTransition)
		}
		return tx.DebitBalance(ctx, deal.BuyerID, deal.Sum)
	})
	if err != nil {
		return err
	}

	ds.audit.LogDebit(dealRef(dealID), deal.BuyerID, deal.Sum, "escrow")
	return nil
}

// Accept moves a deal from waiting_seller to active. Balances are untouched.
func (ds *DealService) Accept(ctx context.Context, dealID int64) error {
	_, err := ds.transition(ctx, dealID, models.DealWaitingSeller, models.DealActive, nil)
	return err
}

// Close settles an active deal: the seller is paid and both parties gain rating.
func (ds *DealService) Close(ctx context.Context, dealID int64) error {
	deal, err := ds.transition(ctx, dealID, models.DealActive, models.DealClosed,
		func(tx *LedgerService, deal *models.Deal) error {
			if err := tx.ChangeBalance(ctx, deal.SellerID, deal.Sum); err != nil {
				return fmt.Errorf("credit seller %d: %w", deal.SellerID, err)
			}
			for _, tg := range []int64{deal.SellerID, deal.BuyerID} {
				if err := tx.AddRating(ctx, tg, ds.config.RatingIncrement); err != nil {
					return fmt.Errorf("rate user %d: %w", tg, err)
				}
			}
			return tx.ClearActiveDeal(ctx, deal.ID, deal.SellerID, deal.BuyerID)
		})
	if err != nil {
		return err
	}

	ds.audit.LogCredit(dealRef(dealID), deal.SellerID, deal.Sum, "deal closed")
	return nil
}

// Escalate hands an active deal over to arbitration.
func (ds *DealService) Escalate(ctx context.Context, dealID int64) error {
	_, err := ds.transition(ctx, dealID, models.DealActive, models.DealArbitrage, nil)
	return err
}

// Resolve closes an arbitrated deal in favour of winner, who receives the deal sum.
func (ds *DealService) Resolve(ctx context.Context, dealID int64, winner models.Party) error {
	if winner != models.PartyBuyer && winner != models.PartySeller {
		return fmt.Errorf("unknown party %q", winner)
	}

	var payee int64
	deal, err := ds.transition(ctx, dealID, models.DealArbitrage, models.DealClosedArbitrage,
		func(tx *LedgerService, deal *models.Deal) error {
			payee = deal.SellerID
			if winner == models.PartyBuyer {
				payee = deal.BuyerID
			}
			if err := tx.ChangeBalance(ctx, payee, deal.Sum); err != nil {
				return fmt.Errorf("credit %s %d: %w", winner, payee, err)
			}
			return tx.ClearActiveDeal(ctx, deal.ID, deal.SellerID, deal.BuyerID)
		})
	if err != nil {
		return err
	}

	ds.audit.LogCredit(dealRef(dealID), payee, deal.Sum, "arbitration won by "+string(winner))
	return nil
}

// Cancel aborts a deal that has not been settled. Escrowed funds go back to the buyer.
func (ds *DealService) Cancel(ctx context.Context, dealID int64) error {
	current, err := ds.Get(ctx, dealID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}

	// The status is re-checked inside the transaction; this read only picks
	// the source state for the guard.
	from := current.Status
	if from != models.DealWaitingSeller && from != models.DealActive {
		return &IllegalTransitionError{DealID: dealID, Current: from, Target: models.DealCanceled}
	}

	deal, err := ds.transition(ctx, dealID, from, models.DealCanceled,
		func(tx *LedgerService, deal *models.Deal) error {
			if deal.Escrowed {
				if err := tx.ChangeBalance(ctx, deal.BuyerID, deal.Sum); err != nil {
					return fmt.Errorf("refund buyer %d: %w", deal.BuyerID, err)
				}
			}
			return tx.ClearActiveDeal(ctx, deal.ID, deal.SellerID, deal.BuyerID)
		})
	if err != nil {
		return err
	}

	if deal.Escrowed {
		ds.audit.LogCredit(dealRef(dealID), deal.BuyerID, deal.Sum, "deal canceled")
	}
	return nil
}

// transition re-reads the deal, checks the move against the transition table
// and applies it together with effect in one transaction.
func (ds *DealService) transition(ctx context.Context, dealID int64, from, to models.DealStatus,
	effect func(tx *LedgerService, deal *models.Deal) error) (*models.Deal, error) {
	var deal *models.Deal
	err := ds.ledger.WithTx(ctx, func(tx *LedgerService) error {
		var err error
		deal, err = ds.load(ctx, tx, dealID)
		if err != nil {
			return err
		}
		if deal.Status != from || !models.CanTransition(from, to) {
			return &IllegalTransitionError{DealID: dealID, Current: deal.Status, Target: to}
		}

		// Effects see the row returned by the guarded update, not the load.
		// A concurrent escrow committed in between is visible here.
		swapped, err := tx.CompareAndSetDealStatus(ctx, dealID, from, to)
		if err != nil {
			return err
		}
		if swapped == nil {
			return &IllegalTransitionError{DealID: dealID, Current: deal.Status, Target: to}
		}
		deal = swapped

		if effect != nil {
			if err := effect(tx, deal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[DEALS] Transition %d %s -> %s rejected: %v", dealID, from, to, err)
		return nil, err
	}

	ds.audit.LogTransition(dealID, string(from), string(to))
	return deal, nil
}

func (ds *DealService) load(ctx context.Context, tx *LedgerService, dealID int64) (*models.Deal, error) {
	deal, err := tx.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	return deal, nil
}

// Get returns nil when the deal does not exist.
func (ds *DealService) Get(ctx context.Context, dealID int64) (*models.Deal, error) {
	return ds.ledger.GetDeal(ctx, dealID)
}

func (ds *DealService) ForUser(ctx context.Context, tg int64) ([]models.Deal, error) {
	return ds.ledger.DealsForUser(ctx, tg)
}

func (ds *DealService) Arbitrage(ctx context.Context) ([]models.Deal, error) {
	return ds.ledger.ArbitrageDeals(ctx)
}

func (ds *DealService) Active(ctx context.Context) ([]models.Deal, error) {
	return ds.ledger.ActiveDeals(ctx)
}

func (ds *DealService) Stats(ctx context.Context) (*models.DealStats, error) {
	return ds.ledger.DealStats(ctx)
}

// AddMessage appends to the deal's communication log; only parties may write.
func (ds *DealService) AddMessage(ctx context.Context, dealID, userID int64, message string) error {
	deal, err := ds.Get(ctx, dealID)
	if err != nil {
		return err
	}
	if deal == nil {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	if userID != deal.BuyerID && userID != deal.SellerID {
		return fmt.Errorf("user %d is not a party of deal %d: %w", userID, dealID, ErrNotFound)
	}
	return ds.ledger.AddDealMessage(ctx, dealID, userID, message)
}

func (ds *DealService) Messages(ctx context.Context, dealID int64) ([]models.DealMessage, error) {
	return ds.ledger.DealMessages(ctx, dealID)
}

func dealRef(dealID int64) string {
	return fmt.Sprintf("deal:%d", dealID)
}
