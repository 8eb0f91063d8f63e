package services

import (
	"context"
	"testing"

	"github.com/garant/backend/internal/database"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatSession struct {
	mock.Mock
}

func (m *MockChatSession) SelfID() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockChatSession) SendMessage(ctx context.Context, peer, text string) (int64, error) {
	args := m.Called(ctx, peer, text)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatSession) LastMessage(ctx context.Context, peer string) (*ChatMessage, error) {
	args := m.Called(ctx, peer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChatMessage), args.Error(1)
}

func (m *MockChatSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) Acquire(ctx context.Context) (ChatSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ChatSession), args.Error(1)
}

// newTestLedger opens a migrated in-memory SQLite ledger.
func newTestLedger(t *testing.T) *LedgerService {
	t.Helper()

	db, err := database.Open(context.Background(), &database.DBConfig{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewLedgerService(db)
}

// newTestUser creates a user with the given balance.
func newTestUser(t *testing.T, ledger *LedgerService, tg int64, balance int64) {
	t.Helper()

	ctx := context.Background()
	_, err := ledger.EnsureUser(ctx, tg, "")
	require.NoError(t, err)
	require.NoError(t, ledger.SetBalance(ctx, tg, balance))
}
