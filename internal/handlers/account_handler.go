package handlers

import (
	"net/http"

	"github.com/garant/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewAccountHandler(ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	TgID     int64  `json:"tgId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// GetAccount returns the caller's own record.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.ledger.GetUser(r.Context(), userID)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	if user == nil {
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.ledger.UserStats(r.Context(), userID)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	if stats == nil {
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AccountHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	payments, err := h.ledger.PaymentsForUser(r.Context(), userID)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// UpdateState sets the conversation state fields kept for the bot. Fields
// named in clear are reset; absent fields are left alone.
func (h *AccountHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Status       *string  `json:"status"`
		TempField    *string  `json:"tempField"`
		MailingPhoto *string  `json:"mailingPhoto"`
		Clear        []string `json:"clear" validate:"dive,oneof=status tempField mailingPhoto"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	reset := make(map[string]bool, len(req.Clear))
	for _, field := range req.Clear {
		reset[field] = true
	}

	ctx := r.Context()
	updates := []struct {
		name  string
		value *string
		apply func(value *string) error
	}{
		{"status", req.Status, func(v *string) error { return h.ledger.SetStatus(ctx, userID, v) }},
		{"tempField", req.TempField, func(v *string) error { return h.ledger.SetTempField(ctx, userID, v) }},
		{"mailingPhoto", req.MailingPhoto, func(v *string) error { return h.ledger.SetMailingPhoto(ctx, userID, v) }},
	}
	for _, u := range updates {
		if u.value == nil && !reset[u.name] {
			continue
		}
		if err := u.apply(u.value); err != nil {
			sendServiceError(w, "ACCOUNT", err)
			return
		}
	}

	user, err := h.ledger.GetUser(ctx, userID)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// FindByUsername resolves a handle to its public profile.
func (h *AccountHandler) FindByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.ledger.FindUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	if user == nil {
		services.SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, PublicProfile{TgID: user.TgID, Username: user.Username, Rating: user.Rating})
}

// ListUsers is the operator's view of all accounts.
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.AllUsers(r.Context())
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// AdjustBalance applies either an absolute balance or a signed delta.
func (h *AccountHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	tg, ok := pathInt(w, r, "tg")
	if !ok {
		return
	}

	var req struct {
		Balance *int64 `json:"balance" validate:"required_without=Delta,excluded_with=Delta"`
		Delta   *int64 `json:"delta"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	ctx := r.Context()
	var err error
	if req.Balance != nil {
		err = h.ledger.SetBalance(ctx, tg, *req.Balance)
	} else {
		err = h.ledger.ChangeBalance(ctx, tg, *req.Delta)
	}
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}

	user, err := h.ledger.GetUser(ctx, tg)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetDealStats is the operator overview of deals, registrations and balances.
func (h *AccountHandler) GetDealStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.DealStats(r.Context())
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetPeriodStats counts deals and registrations in one trailing window.
func (h *AccountHandler) GetPeriodStats(w http.ResponseWriter, r *http.Request) {
	period := services.Period(chi.URLParam(r, "period"))
	ctx := r.Context()

	deals, err := h.ledger.CountDealsSince(ctx, period)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	users, err := h.ledger.CountUsersSince(ctx, period)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "deals": deals, "users": users})
}
