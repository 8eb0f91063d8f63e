package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log"
	"strconv"

	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

var (
	ErrInviteExpired     = errors.New("invalid or expired invite")
	ErrInviteUnavailable = errors.New("invites need redis")
)

// DealInvite is a one-time link the buyer hands to the seller.
type DealInvite struct {
	Code    string `json:"code"`
	DealID  int64  `json:"dealId"`
	Link    string `json:"link"`
	QRImage string `json:"qrImage"` // base64 PNG of Link
}

// InviteService issues single-use deal invitations backed by redis.
type InviteService struct {
	deals  *DealService
	redis  *redis.Client
	config *config.InviteConfig

	newCode func() string
}

func NewInviteService(deals *DealService, redis *redis.Client, cfg *config.InviteConfig) *InviteService {
	return &InviteService{
		deals:   deals,
		redis:   redis,
		config:  cfg,
		newCode: generateNonce,
	}
}

func (s *InviteService) inviteKey(code string) string {
	return fmt.Sprintf("invite:%s", code)
}

// CreateInvite lets the buyer of a deal waiting for its seller share it.
func (s *InviteService) CreateInvite(ctx context.Context, dealID, buyerID int64) (*DealInvite, error) {
	if s.redis == nil {
		return nil, ErrInviteUnavailable
	}

	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil || deal.BuyerID != buyerID {
		return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	if deal.Status != models.DealWaitingSeller {
		return nil, &IllegalTransitionError{DealID: dealID, Current: deal.Status, Target: models.DealActive}
	}

	code := s.newCode()
	if err := s.redis.Set(ctx, s.inviteKey(code), dealID, s.config.TTL).Err(); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("https://t.me/%s?start=deal_%s", s.config.BotName, code)
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.config.QRSize)); err != nil {
		return nil, err
	}

	log.Printf("[INVITE] Deal %d shared by buyer %d", dealID, buyerID)
	return &DealInvite{
		Code:    code,
		DealID:  dealID,
		Link:    link,
		QRImage: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// AcceptInvite consumes the invite and accepts the deal on behalf of its
// seller. An invite presented by anyone else is left untouched.
func (s *InviteService) AcceptInvite(ctx context.Context, code string, sellerID int64) (*models.Deal, error) {
	if s.redis == nil {
		return nil, ErrInviteUnavailable
	}

	key := s.inviteKey(code)
	raw, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrInviteExpired
	}
	if err != nil {
		return nil, err
	}

	dealID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrInviteExpired
	}

	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil || deal.SellerID != sellerID {
		return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}

	s.redis.Del(ctx, key)

	if err := s.deals.Accept(ctx, dealID); err != nil {
		return nil, err
	}
	deal.Status = models.DealActive
	return deal, nil
}

func generateNonce() string {
	b := make([]byte, 12)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
