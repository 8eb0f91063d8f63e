package handlers

import (
	"net/http"

	"github.com/garant/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	ledger    *services.LedgerService
	vouchers  *services.VoucherService
	validator *services.ValidationHelper
}

func NewPaymentHandler(ledger *services.LedgerService, vouchers *services.VoucherService) *PaymentHandler {
	return &PaymentHandler{
		ledger:    ledger,
		vouchers:  vouchers,
		validator: services.NewValidationHelper(),
	}
}

type codeRequest struct {
	Code string `json:"code" validate:"required,max=128"`
}

// RedeemCoupon credits an internal promo code to the caller
// @Summary Redeem a promo coupon
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body codeRequest true "Coupon code"
// @Success 200 {object} object{credited=int64,balance=int64}
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /coupons/redeem [post]
func (h *PaymentHandler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req codeRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	credited, err := h.ledger.RedeemCoupon(r.Context(), userID, req.Code)
	if err != nil {
		sendServiceError(w, "COUPON", err)
		return
	}

	user, err := h.ledger.GetUser(r.Context(), userID)
	if err != nil {
		sendServiceError(w, "COUPON", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credited": credited, "balance": user.Balance})
}

// RedeemCheque checks an external cheque and credits it when the remote side
// confirms the redemption
// @Summary Redeem a cheque
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body codeRequest true "Cheque code"
// @Success 200 {object} object{outcome=string,amount=string,credited=int64}
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /cheques/redeem [post]
func (h *PaymentHandler) RedeemCheque(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req codeRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	result, err := h.vouchers.RedeemCheque(r.Context(), userID, req.Code)
	if err != nil {
		sendServiceError(w, "VOUCHER", err)
		return
	}
	if err := result.Err(); err != nil {
		sendServiceError(w, "VOUCHER", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcome":  result.Outcome,
		"amount":   result.Amount,
		"credited": result.Credited(),
	})
}

// Operator endpoints

func (h *PaymentHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code           string `json:"code" validate:"required,max=128"`
		Sum            int64  `json:"sum" validate:"required,gt=0"`
		MaxActivations int    `json:"maxActivations" validate:"required,gt=0"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	id, err := h.ledger.AddCoupon(r.Context(), req.Code, req.Sum, req.MaxActivations)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *PaymentHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.ledger.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	if coupon == nil {
		services.SendErrorResponse(w, "Coupon not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, coupon)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.ledger.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	if payment == nil {
		services.SendErrorResponse(w, "Payment not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// SetPaymentStatus moves a payment forward; lowering a status is a conflict.
func (h *PaymentHandler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status int `json:"status" validate:"gte=0"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.ledger.SetPaymentStatus(r.Context(), id, req.Status); err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}

	payment, err := h.ledger.GetPayment(r.Context(), id)
	if err != nil {
		sendServiceError(w, "ADMIN", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// VerifyCheque asks the remote side about a code without touching the ledger.
// Every outcome, inconclusive included, is a 200.
func (h *PaymentHandler) VerifyCheque(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	result, err := h.vouchers.Verify(r.Context(), req.Code)
	if err != nil {
		sendServiceError(w, "VOUCHER", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
