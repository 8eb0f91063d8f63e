package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/garant/backend/internal/audit"
	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// ChatMessage is one message of the remote conversation.
type ChatMessage struct {
	ID       int64  `json:"id"`
	SenderID int64  `json:"sender_id"`
	Text     string `json:"text"`
}

// ChatSession is an authenticated user session on the chat network.
type ChatSession interface {
	// SelfID is the account id of the session owner.
	SelfID() int64
	// SendMessage sends text to peer and returns the id of the sent message.
	SendMessage(ctx context.Context, peer, text string) (int64, error)
	// LastMessage returns the most recent message in the dialog with peer, or
	// nil if the dialog is empty.
	LastMessage(ctx context.Context, peer string) (*ChatMessage, error)
	Close() error
}

// ChatSessionProvider hands out sessions for the duration of one check.
type ChatSessionProvider interface {
	Acquire(ctx context.Context) (ChatSession, error)
}

type VoucherOutcome string

const (
	VoucherRedeemed       VoucherOutcome = "redeemed"
	VoucherAlreadyClaimed VoucherOutcome = "already_claimed"
	VoucherInconclusive   VoucherOutcome = "inconclusive"
)

const alreadyClaimedPhrase = "Упс, кажется, данный чек успел обналичить кто-то другой 😟"

var receivedPattern = regexp.MustCompile(`Вы получили \d+\.\d+ BTC \(([\d.]+) RUB\)`)

// VoucherResult is the classified answer of the remote endpoint.
type VoucherResult struct {
	Outcome  VoucherOutcome  `json:"outcome"`
	Amount   decimal.Decimal `json:"amount"`
	Reply    string          `json:"reply,omitempty"`
	TimedOut bool            `json:"timedOut,omitempty"`
}

// Credited reports the redeemed value in minor units (kopecks).
func (r *VoucherResult) Credited() int64 {
	if r.Outcome != VoucherRedeemed {
		return 0
	}
	return r.Amount.Shift(2).Round(0).IntPart()
}

// Err maps a negative outcome to the error taxonomy; nil for a redemption.
func (r *VoucherResult) Err() error {
	switch {
	case r.Outcome == VoucherRedeemed:
		return nil
	case r.Outcome == VoucherAlreadyClaimed:
		return ErrAlreadyClaimed
	case r.TimedOut:
		return ErrVerificationTimeout
	}
	return ErrVerificationInconclusive
}

// ClassifyReply turns the accepted reply into an outcome.
func ClassifyReply(reply string) *VoucherResult {
	result := &VoucherResult{Outcome: VoucherInconclusive, Reply: reply}
	if strings.Contains(reply, alreadyClaimedPhrase) {
		result.Outcome = VoucherAlreadyClaimed
		return result
	}

	match := receivedPattern.FindStringSubmatch(reply)
	if match == nil {
		return result
	}
	amount, err := decimal.NewFromString(match[1])
	if err != nil || !amount.IsPositive() {
		return result
	}

	result.Outcome = VoucherRedeemed
	result.Amount = amount
	return result
}

// VoucherService checks cheque codes against the remote exchange bot and
// credits redeemed cheques.
type VoucherService struct {
	ledger   *LedgerService
	sessions ChatSessionProvider
	redis    *redis.Client
	config   *config.VoucherConfig
	audit    *audit.AuditLogger

	// one check at a time per process; redis extends this across processes
	checks   *semaphore.Weighted
	newToken func() string
}

func NewVoucherService(ledger *LedgerService, sessions ChatSessionProvider, redisClient *redis.Client, cfg *config.VoucherConfig) *VoucherService {
	return &VoucherService{
		ledger:   ledger,
		sessions: sessions,
		redis:    redisClient,
		config:   cfg,
		audit:    audit.NewAuditLogger(),
		checks:   semaphore.NewWeighted(1),
		newToken: uuid.NewString,
	}
}

// Verify submits code and waits for the classified answer. Parse ambiguity and
// the configured timeout yield an inconclusive result, not an error; errors
// are reserved for the transport and for caller cancellation.
func (s *VoucherService) Verify(ctx context.Context, code string) (*VoucherResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	// A queued check gives up with its context.
	if err := s.checks.Acquire(checkCtx, 1); err != nil {
		return s.interrupted(ctx, err)
	}
	defer s.checks.Release(1)

	release, err := s.lockRemote(checkCtx)
	if err != nil {
		return s.interrupted(ctx, err)
	}
	defer release()

	if err := checkCtx.Err(); err != nil {
		return s.interrupted(ctx, err)
	}
	session, err := s.sessions.Acquire(checkCtx)
	if err != nil {
		if ctx.Err() == nil && checkCtx.Err() == nil {
			return nil, fmt.Errorf("%w: acquire session: %v", ErrRemoteSession, err)
		}
		return s.interrupted(ctx, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("[VOUCHER] Failed to close session: %v", err)
		}
	}()

	sentID, err := session.SendMessage(checkCtx, s.config.RemotePeer, s.config.CommandPrefix+code)
	if err != nil {
		if ctx.Err() == nil && checkCtx.Err() == nil {
			return nil, fmt.Errorf("%w: send command: %v", ErrRemoteSession, err)
		}
		return s.interrupted(ctx, err)
	}

	reply, err := s.awaitReply(checkCtx, session, sentID)
	if err != nil {
		if ctx.Err() == nil && checkCtx.Err() == nil {
			return nil, fmt.Errorf("%w: fetch reply: %v", ErrRemoteSession, err)
		}
		return s.interrupted(ctx, err)
	}

	return ClassifyReply(reply), nil
}

// interrupted separates caller cancellation from our own timeout.
func (s *VoucherService) interrupted(ctx context.Context, cause error) (*VoucherResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("[VOUCHER] Check timed out after %s: %v", s.config.Timeout, cause)
	return &VoucherResult{Outcome: VoucherInconclusive, TimedOut: true}, nil
}

// awaitReply polls the dialog until a message passes acceptReply.
func (s *VoucherService) awaitReply(ctx context.Context, session ChatSession, sentID int64) (string, error) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		msg, err := session.LastMessage(ctx, s.config.RemotePeer)
		if err != nil {
			return "", err
		}
		if msg != nil && s.acceptReply(msg, session.SelfID(), sentID) {
			return msg.Text, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// acceptReply drops greetings, echoes of our own command and anything that
// predates it.
func (s *VoucherService) acceptReply(msg *ChatMessage, selfID, sentID int64) bool {
	if strings.HasPrefix(msg.Text, s.config.GreetingPrefix) {
		return false
	}
	if msg.SenderID == selfID {
		return false
	}
	return sentID <= 0 || msg.ID > sentID
}

func (s *VoucherService) lockKey() string {
	return "voucher:lock:" + s.config.RemotePeer
}

// lockRemote takes the cross-process lock on the remote dialog. Without redis
// the in-process semaphore is the only guard.
func (s *VoucherService) lockRemote(ctx context.Context) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := s.lockKey()
	token := s.newToken()
	for {
		ok, err := s.redis.SetNX(ctx, key, token, s.config.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: lock: %v", ErrRemoteSession, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.PollInterval):
		}
	}

	return func() {
		// the check context may already be done; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		owner, err := s.redis.Get(releaseCtx, key).Result()
		if err != nil && err != redis.Nil {
			log.Printf("[VOUCHER] Failed to read lock %s: %v", key, err)
			return
		}
		if owner == token {
			s.redis.Del(releaseCtx, key)
		}
	}, nil
}

// RedeemCheque verifies code and, when redeemed, records the payment and
// credits the user in one transaction. Negative outcomes leave the ledger
// untouched and are reported through VoucherResult.Err.
func (s *VoucherService) RedeemCheque(ctx context.Context, tg int64, code string) (*VoucherResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCode
	}
	if err := s.checkRateLimit(ctx, tg); err != nil {
		return nil, err
	}
	s.incrementRateLimit(ctx, tg)

	ref := s.chequeReference(code)
	result, err := s.Verify(ctx, code)
	if err != nil {
		s.audit.LogError(ref, tg, err)
		return nil, err
	}

	if result.Outcome != VoucherRedeemed {
		s.audit.LogVoucher(ref, tg, string(result.Outcome), 0)
		return result, nil
	}

	credited := result.Credited()
	err = s.ledger.WithTx(ctx, func(tx *LedgerService) error {
		if err := tx.AddPayment(ctx, ref, credited, models.PaymentTypeCheque, tg); err != nil {
			return err
		}
		if err := tx.SetPaymentStatus(ctx, ref, models.PaymentConfirmed); err != nil {
			return err
		}
		return tx.ChangeBalance(ctx, tg, credited)
	})
	if err != nil {
		s.audit.LogError(ref, tg, err)
		return nil, err
	}

	s.audit.LogVoucher(ref, tg, string(result.Outcome), credited)
	s.audit.LogCredit(ref, tg, credited, "cheque redeemed")
	return result, nil
}

// chequeReference derives the payment id from the bearer code so the code
// itself is never stored.
func (s *VoucherService) chequeReference(code string) string {
	key := argon2.IDKey([]byte(strings.TrimSpace(code)), []byte(s.config.ReferenceSalt),
		uint32(s.config.HashTime),
		uint32(s.config.HashMemoryKiB),
		uint8(s.config.HashThreads),
		16)
	return "cheque:" + hex.EncodeToString(key)
}

func (s *VoucherService) rateLimitKey(tg int64) string {
	return fmt.Sprintf("voucher:ratelimit:%d", tg)
}

func (s *VoucherService) checkRateLimit(ctx context.Context, tg int64) error {
	if s.redis == nil || s.config.MaxChecksPerUser <= 0 {
		return nil
	}

	count, err := s.redis.Get(ctx, s.rateLimitKey(tg)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if count >= s.config.MaxChecksPerUser {
		return ErrRateLimited
	}
	return nil
}

func (s *VoucherService) incrementRateLimit(ctx context.Context, tg int64) {
	if s.redis == nil || s.config.MaxChecksPerUser <= 0 {
		return
	}

	key := s.rateLimitKey(tg)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.RateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[VOUCHER] Failed to update rate limit for %d: %v", tg, err)
	}
}
