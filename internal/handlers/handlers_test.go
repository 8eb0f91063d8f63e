package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/database"
	"github.com/garant/backend/internal/middleware"
	"github.com/garant/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// stubSession answers every command with a fixed reply.
type stubSession struct {
	reply string
}

func (s *stubSession) SelfID() int64 { return 1 }

func (s *stubSession) SendMessage(ctx context.Context, peer, text string) (int64, error) {
	return 10, nil
}

func (s *stubSession) LastMessage(ctx context.Context, peer string) (*services.ChatMessage, error) {
	return &services.ChatMessage{ID: 11, SenderID: 2, Text: s.reply}, nil
}

func (s *stubSession) Close() error { return nil }

type stubProvider struct {
	session *stubSession
}

func (p *stubProvider) Acquire(ctx context.Context) (services.ChatSession, error) {
	return p.session, nil
}

type testEnv struct {
	ledger  *services.LedgerService
	deals   *services.DealService
	session *stubSession
	router  chi.Router
}

// newTestEnv wires handlers over an in-memory ledger. Requests name their
// caller in X-Test-User and X-Test-Role instead of carrying a token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(context.Background(), &database.DBConfig{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := services.NewLedgerService(db)
	deals := services.NewDealService(ledger, &config.DealConfig{RatingIncrement: 1, MaxInfoLength: 100})
	session := &stubSession{}
	vouchers := services.NewVoucherService(ledger, &stubProvider{session: session}, nil, &config.VoucherConfig{
		RemotePeer:     "BTC_CHANGE_BOT",
		CommandPrefix:  "/start ",
		GreetingPrefix: "Приветствую,",
		PollInterval:   time.Millisecond,
		Timeout:        time.Second,
		ReferenceSalt:  "test",
		HashTime:       1,
		HashMemoryKiB:  64,
		HashThreads:    1,
	})

	account := NewAccountHandler(ledger)
	deal := NewDealHandler(deals, services.NewInviteService(deals, nil, &config.InviteConfig{}), ledger)
	payment := NewPaymentHandler(ledger, vouchers)
	content := NewContentHandler(ledger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id, err := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64); err == nil {
				ctx = context.WithValue(ctx, middleware.UserIDKey, id)
			}
			ctx = context.WithValue(ctx, middleware.RoleKey, r.Header.Get("X-Test-Role"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/account", account.GetAccount)
	r.Get("/account/stats", account.GetStats)
	r.Put("/account/state", account.UpdateState)
	r.Get("/users/{username}", account.FindByUsername)
	r.Post("/deals", deal.CreateDeal)
	r.Get("/deals", deal.ListDeals)
	r.Get("/deals/{id}", deal.GetDeal)
	r.Post("/deals/{id}/escrow", deal.Escrow)
	r.Post("/deals/{id}/accept", deal.Accept)
	r.Post("/deals/{id}/close", deal.Close)
	r.Post("/deals/{id}/dispute", deal.Dispute)
	r.Post("/deals/{id}/cancel", deal.Cancel)
	r.Post("/deals/{id}/invite", deal.CreateInvite)
	r.Get("/deals/{id}/messages", deal.ListMessages)
	r.Post("/deals/{id}/messages", deal.AddMessage)
	r.Post("/coupons/redeem", payment.RedeemCoupon)
	r.Post("/cheques/redeem", payment.RedeemCheque)
	r.Get("/ads", content.ListAds)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Put("/users/{tg}/balance", account.AdjustBalance)
		r.Get("/stats/{period}", account.GetPeriodStats)
		r.Get("/deals/arbitrage", deal.ListArbitrage)
		r.Post("/deals/{id}/resolve", deal.Resolve)
		r.Post("/coupons", payment.CreateCoupon)
		r.Put("/payments/{id}/status", payment.SetPaymentStatus)
		r.Post("/ads", content.CreateAd)
		r.Post("/mailings", content.CreateMailing)
		r.Post("/mailings/{id}/confirm", content.ConfirmMailing)
		r.Get("/mailings/due", content.DueMailings)
	})

	return &testEnv{ledger: ledger, deals: deals, session: session, router: r}
}

func (e *testEnv) user(t *testing.T, tg int64, username string, balance int64) {
	t.Helper()

	ctx := context.Background()
	_, err := e.ledger.EnsureUser(ctx, tg, username)
	require.NoError(t, err)
	require.NoError(t, e.ledger.SetBalance(ctx, tg, balance))
}

func (e *testEnv) balance(t *testing.T, tg int64) int64 {
	t.Helper()

	user, err := e.ledger.GetUser(context.Background(), tg)
	require.NoError(t, err)
	return user.Balance
}

// do sends body as JSON on behalf of user (0 for anonymous) and decodes the
// response into a generic map.
func (e *testEnv) do(t *testing.T, method, path string, user int64, role string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != 0 {
		req.Header.Set("X-Test-User", strconv.FormatInt(user, 10))
	}
	req.Header.Set("X-Test-Role", role)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}
