package services

import (
	"context"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/models"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteService(t *testing.T) {
	deals, ledger := newTestDealService(t)
	ctx := context.Background()
	newTestUser(t, ledger, 1, 0)
	newTestUser(t, ledger, 2, 0)

	dealID, err := deals.Create(ctx, CreateDealRequest{SellerID: 2, BuyerID: 1, Amount: 100})
	require.NoError(t, err)

	redisClient, mock := redismock.NewClientMock()
	cfg := &config.InviteConfig{BotName: "garant_bot", TTL: time.Hour, QRSize: 128}
	service := NewInviteService(deals, redisClient, cfg)
	service.newCode = func() string { return "abc" }

	t.Run("only the buyer can share", func(t *testing.T) {
		_, err := service.CreateInvite(ctx, dealID, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create", func(t *testing.T) {
		mock.ExpectSet("invite:abc", dealID, time.Hour).SetVal("OK")

		invite, err := service.CreateInvite(ctx, dealID, 1)
		require.NoError(t, err)
		assert.Equal(t, "https://t.me/garant_bot?start=deal_abc", invite.Link)

		png, err := base64.StdEncoding.DecodeString(invite.QRImage)
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG", string(png[:4]))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong seller keeps the invite", func(t *testing.T) {
		mock.ExpectGet("invite:abc").SetVal(strconv.FormatInt(dealID, 10))

		_, err := service.AcceptInvite(ctx, "abc", 3)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seller accepts", func(t *testing.T) {
		mock.ExpectGet("invite:abc").SetVal(strconv.FormatInt(dealID, 10))
		mock.ExpectDel("invite:abc").SetVal(1)

		deal, err := service.AcceptInvite(ctx, "abc", 2)
		require.NoError(t, err)
		assert.Equal(t, models.DealActive, deal.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired", func(t *testing.T) {
		mock.ExpectGet("invite:abc").RedisNil()

		_, err := service.AcceptInvite(ctx, "abc", 2)
		assert.ErrorIs(t, err, ErrInviteExpired)
	})

	t.Run("deal no longer waiting", func(t *testing.T) {
		_, err := service.CreateInvite(ctx, dealID, 1)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("without redis", func(t *testing.T) {
		_, err := NewInviteService(deals, nil, cfg).CreateInvite(ctx, dealID, 1)
		assert.ErrorIs(t, err, ErrInviteUnavailable)
	})
}
