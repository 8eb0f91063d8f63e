package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "buyer", 1000)
	env.user(t, 2, "seller", 0)

	code, body := env.do(t, http.MethodPost, "/deals", 1, "", map[string]any{
		"sellerUsername": "seller",
		"amount":         500,
		"info":           "domain transfer",
	})
	require.Equal(t, http.StatusCreated, code)
	id := int64(body["id"].(float64))
	base := fmt.Sprintf("/deals/%d", id)

	code, _ = env.do(t, http.MethodPost, base+"/accept", 1, "", nil)
	assert.Equal(t, http.StatusForbidden, code, "buyer cannot accept")

	code, body = env.do(t, http.MethodPost, base+"/accept", 2, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", body["status"])

	code, _ = env.do(t, http.MethodPost, base+"/escrow", 1, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(500), env.balance(t, 1))

	code, _ = env.do(t, http.MethodPost, base+"/close", 2, "", nil)
	assert.Equal(t, http.StatusForbidden, code, "seller cannot close")

	code, body = env.do(t, http.MethodPost, base+"/close", 1, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "closed", body["status"])
	assert.Equal(t, int64(500), env.balance(t, 2))

	code, _ = env.do(t, http.MethodPost, base+"/close", 1, "", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestDealHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "buyer", 100)
	env.user(t, 2, "seller", 0)

	tests := []struct {
		name   string
		user   int64
		body   map[string]any
		status int
	}{
		{"anonymous", 0, map[string]any{"seller": 2, "amount": 10}, http.StatusUnauthorized},
		{"no seller", 1, map[string]any{"amount": 10}, http.StatusBadRequest},
		{"unknown username", 1, map[string]any{"sellerUsername": "ghost", "amount": 10}, http.StatusNotFound},
		{"zero amount", 1, map[string]any{"seller": 2, "amount": 0}, http.StatusBadRequest},
		{"self deal", 1, map[string]any{"seller": 1, "amount": 10}, http.StatusBadRequest},
		{"unknown field", 1, map[string]any{"seller": 2, "amount": 10, "fee": 1}, http.StatusBadRequest},
		{"escrow without funds", 1, map[string]any{"seller": 2, "amount": 500, "escrow": true}, http.StatusPaymentRequired},
		{"escrowed", 1, map[string]any{"seller": 2, "amount": 100, "escrow": true}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := env.do(t, http.MethodPost, "/deals", tt.user, "", tt.body)
			assert.Equal(t, tt.status, code)
		})
	}

	assert.Equal(t, int64(0), env.balance(t, 1))
}

func TestDealHandler_Visibility(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 0)
	env.user(t, 2, "", 0)
	env.user(t, 3, "", 0)

	code, body := env.do(t, http.MethodPost, "/deals", 1, "", map[string]any{"seller": 2, "amount": 10})
	require.Equal(t, http.StatusCreated, code)
	path := fmt.Sprintf("/deals/%d", int64(body["id"].(float64)))

	code, _ = env.do(t, http.MethodGet, path, 2, "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodGet, path, 3, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, path+"/cancel", 3, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodGet, "/deals/abc", 1, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/deals", 2, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["deals"], 1)
}

func TestDealHandler_DisputeAndResolve(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 300)
	env.user(t, 2, "", 0)

	code, body := env.do(t, http.MethodPost, "/deals", 1, "", map[string]any{"seller": 2, "amount": 300, "escrow": true})
	require.Equal(t, http.StatusCreated, code)
	id := int64(body["id"].(float64))
	base := fmt.Sprintf("/deals/%d", id)

	code, _ = env.do(t, http.MethodPost, base+"/accept", 2, "", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, base+"/messages", 2, "", map[string]any{"message": "shipped"})
	require.Equal(t, http.StatusCreated, code)

	code, body = env.do(t, http.MethodPost, base+"/dispute", 2, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "arbitrage", body["status"])

	code, body = env.do(t, http.MethodGet, base+"/messages", 1, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], 1)

	resolve := fmt.Sprintf("/admin/deals/%d/resolve", id)
	code, _ = env.do(t, http.MethodPost, resolve, 1, "", map[string]any{"winner": "buyer"})
	assert.Equal(t, http.StatusForbidden, code, "parties cannot resolve")

	code, _ = env.do(t, http.MethodPost, resolve, 99, "admin", map[string]any{"winner": "nobody"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/admin/deals/arbitrage", 99, "admin", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["deals"], 1)

	code, body = env.do(t, http.MethodPost, resolve, 99, "admin", map[string]any{"winner": "buyer"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "closed_arbitrage", body["status"])
	assert.Equal(t, int64(300), env.balance(t, 1))
	assert.Equal(t, int64(0), env.balance(t, 2))
}

func TestDealHandler_InviteWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1, "", 0)
	env.user(t, 2, "", 0)

	code, body := env.do(t, http.MethodPost, "/deals", 1, "", map[string]any{"seller": 2, "amount": 10})
	require.Equal(t, http.StatusCreated, code)

	code, _ = env.do(t, http.MethodPost, fmt.Sprintf("/deals/%d/invite", int64(body["id"].(float64))), 1, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
