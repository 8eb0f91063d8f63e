package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/garant/backend/internal/services"
)

// ContentHandler serves ad buttons and manages scheduled mailings. Delivery
// of mailings is up to the bot; only their records live here.
type ContentHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewContentHandler(ledger *services.LedgerService) *ContentHandler {
	return &ContentHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

func (h *ContentHandler) ListAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.ledger.GetAds(r.Context())
	if err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ads": ads})
}

func (h *ContentHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ButtonName string  `json:"buttonName" validate:"required,max=64"`
		ButtonText string  `json:"buttonText" validate:"required,max=4096"`
		PhotoID    *string `json:"photoId"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	id, err := h.ledger.AddAdButton(r.Context(), req.ButtonName, req.ButtonText, req.PhotoID)
	if err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ContentHandler) UpdateAdText(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		ButtonText string `json:"buttonText" validate:"required,max=4096"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.ledger.ChangeButtonText(r.Context(), id, req.ButtonText); err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ContentHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := h.ledger.RemoveAdButton(r.Context(), id); err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateMailing stores an unconfirmed mailing authored by the caller.
func (h *ContentHandler) CreateMailing(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Text     string  `json:"text" validate:"required,max=4096"`
		SendTime int64   `json:"sendTime" validate:"required,gt=0"`
		PhotoID  *string `json:"photoId"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	id, err := h.ledger.AddMailing(r.Context(), req.Text, userID, req.SendTime, req.PhotoID)
	if err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ContentHandler) GetMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	mailing, err := h.ledger.GetMailing(r.Context(), id)
	if err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	if mailing == nil {
		services.SendErrorResponse(w, "Mailing not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, mailing)
}

func (h *ContentHandler) ConfirmMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := h.ledger.ConfirmMailing(r.Context(), id); err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ContentHandler) DeleteMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeleteMailing(r.Context(), id); err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DueMailings lists confirmed, unsent mailings scheduled before ?before=
// (unix seconds, default now).
func (h *ContentHandler) DueMailings(w http.ResponseWriter, r *http.Request) {
	before := time.Now().Unix()
	if raw := r.URL.Query().Get("before"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			services.SendErrorResponse(w, "Invalid before", http.StatusBadRequest, nil)
			return
		}
		before = ts
	}

	mailings, err := h.ledger.MailingsToSend(r.Context(), before)
	if err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mailings": mailings})
}

func (h *ContentHandler) SetMailingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status int `json:"status" validate:"gte=0"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.ledger.UpdateMailingStatus(r.Context(), id, req.Status); err != nil {
		sendServiceError(w, "CONTENT", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
