package handlers

import (
	"log"
	"net/http"

	"github.com/garant/backend/internal/models"
	"github.com/garant/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type DealHandler struct {
	deals     *services.DealService
	invites   *services.InviteService
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewDealHandler(deals *services.DealService, invites *services.InviteService, ledger *services.LedgerService) *DealHandler {
	return &DealHandler{
		deals:     deals,
		invites:   invites,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// createDealRequest names the seller by id or by username.
type createDealRequest struct {
	Seller         int64  `json:"seller" validate:"required_without=SellerUsername"`
	SellerUsername string `json:"sellerUsername"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	Info           string `json:"info"`
	Escrow         bool   `json:"escrow"`
}

// CreateDeal opens a deal with the caller as buyer
// @Summary Create deal
// @Description Open a deal with the caller as buyer. With escrow set the buyer is debited at once.
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createDealRequest true "Deal request"
// @Success 201 {object} object{id=int64,status=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /deals [post]
func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createDealRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	sellerID := req.Seller
	if sellerID == 0 {
		seller, err := h.ledger.FindUserByUsername(r.Context(), req.SellerUsername)
		if err != nil {
			sendServiceError(w, "DEALS", err)
			return
		}
		if seller == nil {
			services.SendErrorResponse(w, "Seller not found", http.StatusNotFound, nil)
			return
		}
		sellerID = seller.TgID
	}

	id, err := h.deals.Create(r.Context(), services.CreateDealRequest{
		SellerID: sellerID,
		BuyerID:  userID,
		Amount:   req.Amount,
		Info:     req.Info,
		Escrow:   req.Escrow,
	})
	if err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}

	log.Printf("[DEALS] CreateDeal - buyer=%d seller=%d deal=%d", userID, sellerID, id)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": models.DealWaitingSeller})
}

func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	deals, err := h.deals.ForUser(r.Context(), userID)
	if err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
}

// partyDeal loads the deal from the URL if the caller is one of its parties.
// Outsiders get the same 404 as for a missing deal.
func (h *DealHandler) partyDeal(w http.ResponseWriter, r *http.Request) (*models.Deal, int64, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return nil, 0, false
	}
	dealID, ok := pathInt(w, r, "id")
	if !ok {
		return nil, 0, false
	}

	deal, err := h.deals.Get(r.Context(), dealID)
	if err != nil {
		sendServiceError(w, "DEALS", err)
		return nil, 0, false
	}
	if deal == nil || (deal.BuyerID != userID && deal.SellerID != userID) {
		services.SendErrorResponse(w, "Deal not found", http.StatusNotFound, nil)
		return nil, 0, false
	}
	return deal, userID, true
}

func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	deal, _, ok := h.partyDeal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// transition runs op if the caller plays the required role.
func (h *DealHandler) transition(w http.ResponseWriter, r *http.Request, role models.Party, op func(dealID int64) error) {
	deal, userID, ok := h.partyDeal(w, r)
	if !ok {
		return
	}

	switch role {
	case models.PartyBuyer:
		ok = deal.BuyerID == userID
	case models.PartySeller:
		ok = deal.SellerID == userID
	}
	if !ok {
		services.SendErrorResponse(w, "Only the "+string(role)+" can do this", http.StatusForbidden, nil)
		return
	}

	if err := op(deal.ID); err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}

	updated, err := h.deals.Get(r.Context(), deal.ID)
	if err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// anyParty lets either side of the deal act.
const anyParty models.Party = ""

func (h *DealHandler) Escrow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PartyBuyer, func(id int64) error { return h.deals.Escrow(r.Context(), id) })
}

func (h *DealHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PartySeller, func(id int64) error { return h.deals.Accept(r.Context(), id) })
}

// Close is the buyer confirming delivery; the seller gets paid.
func (h *DealHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PartyBuyer, func(id int64) error { return h.deals.Close(r.Context(), id) })
}

func (h *DealHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, anyParty, func(id int64) error { return h.deals.Escalate(r.Context(), id) })
}

func (h *DealHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, anyParty, func(id int64) error { return h.deals.Cancel(r.Context(), id) })
}

func (h *DealHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	deal, userID, ok := h.partyDeal(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message" validate:"required,max=4096"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.deals.AddMessage(r.Context(), deal.ID, userID, req.Message); err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (h *DealHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	deal, _, ok := h.partyDeal(w, r)
	if !ok {
		return
	}

	messages, err := h.deals.Messages(r.Context(), deal.ID)
	if err != nil {
		sendServiceError(w, "DEALS", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// CreateInvite returns a one-time link and QR code for the seller
// @Summary Create deal invite
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {object} services.DealInvite
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /deals/{id}/invite [post]
func (h *DealHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	dealID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	invite, err := h.invites.CreateInvite(r.Context(), dealID, userID)
	if err != nil {
		sendServiceError(w, "INVITE", err)
		return
	}
	writeJSON(w, http.StatusOK, invite)
}

func (h *DealHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	deal, err := h.invites.AcceptInvite(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		sendServiceError(w, "INVITE", err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// Operator endpoints

func (h *DealHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.Active(r.Context())
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
}

func (h *DealHandler) ListArbitrage(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.Arbitrage(r.Context())
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
}

// Resolve settles a disputed deal in favour of one party
// @Summary Settle a disputed deal
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body object{winner=string} true "buyer or seller"
// @Success 200 {object} models.Deal
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/deals/{id}/resolve [post]
func (h *DealHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Winner models.Party `json:"winner" validate:"required,oneof=buyer seller"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.deals.Resolve(r.Context(), dealID, req.Winner); err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}

	deal, err := h.deals.Get(r.Context(), dealID)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// AdminGetDeal shows any deal with its communication log.
func (h *DealHandler) AdminGetDeal(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	deal, err := h.deals.Get(r.Context(), dealID)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	if deal == nil {
		services.SendErrorResponse(w, "Deal not found", http.StatusNotFound, nil)
		return
	}

	messages, err := h.deals.Messages(r.Context(), dealID)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deal": deal, "messages": messages})
}
