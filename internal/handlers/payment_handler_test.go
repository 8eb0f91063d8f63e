package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentHandler_Coupon(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 0)
	env.user(t, 2, "", 0)

	code, _ := env.do(t, http.MethodPost, "/admin/coupons", 1, "", map[string]any{"code": "SPRING", "sum": 250, "maxActivations": 1})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodPost, "/admin/coupons", 99, "admin", map[string]any{"code": "SPRING", "sum": 250, "maxActivations": 1})
	require.Equal(t, http.StatusCreated, code)

	code, body := env.do(t, http.MethodPost, "/coupons/redeem", 1, "", map[string]any{"code": "SPRING"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(250), body["credited"])
	assert.Equal(t, float64(250), body["balance"])

	code, _ = env.do(t, http.MethodPost, "/coupons/redeem", 2, "", map[string]any{"code": "SPRING"})
	assert.Equal(t, http.StatusConflict, code, "cap reached")

	code, _ = env.do(t, http.MethodPost, "/coupons/redeem", 2, "", map[string]any{"code": "WINTER"})
	assert.Equal(t, http.StatusNotFound, code)

	assert.Equal(t, int64(0), env.balance(t, 2))
}

func TestPaymentHandler_RedeemCheque(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 0)

	env.session.reply = "Вы получили 0.00012 BTC (150.25 RUB)"
	code, body := env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": "c_abc"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "redeemed", body["outcome"])
	assert.Equal(t, float64(15025), body["credited"])
	assert.Equal(t, int64(15025), env.balance(t, 1))

	code, _ = env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": "c_abc"})
	assert.Equal(t, http.StatusConflict, code, "same cheque twice")

	env.session.reply = "Упс, кажется, данный чек успел обналичить кто-то другой 😟"
	code, _ = env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": "c_def"})
	assert.Equal(t, http.StatusConflict, code)

	env.session.reply = "Что-то пошло не так"
	code, _ = env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": "c_ghi"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, int64(15025), env.balance(t, 1))
}

func TestPaymentHandler_SetPaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 0)
	env.session.reply = "Вы получили 0.0001 BTC (10 RUB)"

	code, _ := env.do(t, http.MethodPost, "/cheques/redeem", 1, "", map[string]any{"code": "c_abc"})
	require.Equal(t, http.StatusOK, code)

	payments, err := env.ledger.PaymentsForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	path := "/admin/payments/" + payments[0].ID + "/status"

	code, _ = env.do(t, http.MethodPut, path, 99, "admin", map[string]any{"status": 0})
	assert.Equal(t, http.StatusConflict, code)

	code, body := env.do(t, http.MethodPut, path, 99, "admin", map[string]any{"status": 3})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["status"])

	code, _ = env.do(t, http.MethodPut, "/admin/payments/missing/status", 99, "admin", map[string]any{"status": 3})
	assert.Equal(t, http.StatusNotFound, code)
}
