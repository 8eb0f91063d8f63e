package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garant/backend/internal/models"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// MoscowTZ is the fixed UTC+3 clock used for timestamps and stat windows.
var MoscowTZ = time.FixedZone("MSK", 3*60*60)

func moscowNow() time.Time {
	return time.Now().In(MoscowTZ)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LedgerService is the durable store of users, balances, deals, payments,
// coupons and the auxiliary records around them. Every method commits before
// it returns unless it runs inside WithTx.
type LedgerService struct {
	db  *sql.DB
	q   dbtx
	now func() time.Time
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db, q: db, now: moscowNow}
}

// WithClock returns a copy of the service that reads time from now.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	return &LedgerService{db: s.db, q: s.q, now: now}
}

// WithTx runs fn against a ledger bound to a single database transaction.
// Nested calls reuse the outer transaction.
func (s *LedgerService) WithTx(ctx context.Context, fn func(tx *LedgerService) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&LedgerService{db: s.db, q: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *LedgerService) timestamp() int64 {
	return s.now().In(MoscowTZ).Unix()
}

const userColumns = `tg, username, balance, rating, status, temp_field, active_deal, mailing_photo, reg_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u            models.User
		username     sql.NullString
		status       sql.NullString
		tempField    sql.NullString
		activeDeal   sql.NullInt64
		mailingPhoto sql.NullString
	)
	if err := row.Scan(&u.TgID, &username, &u.Balance, &u.Rating, &status, &tempField, &activeDeal, &mailingPhoto, &u.RegTime); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.Status = nullStringPtr(status)
	u.TempField = nullStringPtr(tempField)
	u.MailingPhoto = nullStringPtr(mailingPhoto)
	if activeDeal.Valid {
		id := activeDeal.Int64
		u.ActiveDeal = &id
	}
	return &u, nil
}

// EnsureUser returns the user record, creating it on first contact and
// refreshing the cached handle when it changed.
func (s *LedgerService) EnsureUser(ctx context.Context, tg int64, username string) (*models.User, error) {
	var user *models.User
	err := s.WithTx(ctx, func(tx *LedgerService) error {
		existing, err := tx.GetUser(ctx, tg)
		if err != nil {
			return err
		}

		if existing == nil {
			_, err = tx.q.ExecContext(ctx, `
				INSERT INTO users (tg, username, balance, rating, status, temp_field, reg_time)
				VALUES ($1, $2, 0, 0, NULL, NULL, $3)
				ON CONFLICT (tg) DO NOTHING`,
				tg, username, tx.timestamp())
			if err != nil {
				return fmt.Errorf("failed to create user %d: %w", tg, err)
			}
		} else if existing.Username != username {
			_, err = tx.q.ExecContext(ctx, `UPDATE users SET username = $1 WHERE tg = $2`, username, tg)
			if err != nil {
				return fmt.Errorf("failed to update username of %d: %w", tg, err)
			}
		} else {
			user = existing
			return nil
		}

		user, err = tx.GetUser(ctx, tg)
		return err
	})
	return user, err
}

// GetUser returns nil when the user does not exist.
func (s *LedgerService) GetUser(ctx context.Context, tg int64) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE tg = $1`, tg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

// FindUserByUsername returns nil when no user has the handle.
func (s *LedgerService) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (s *LedgerService) AllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY tg`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *LedgerService) SetStatus(ctx context.Context, tg int64, status *string) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET status = $1 WHERE tg = $2`, nullString(status), tg))
}

func (s *LedgerService) SetTempField(ctx context.Context, tg int64, value *string) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET temp_field = $1 WHERE tg = $2`, nullString(value), tg))
}

func (s *LedgerService) SetMailingPhoto(ctx context.Context, tg int64, photoID *string) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET mailing_photo = $1 WHERE tg = $2`, nullString(photoID), tg))
}

// SetActiveDeal points the user at a deal; nil clears the pointer.
func (s *LedgerService) SetActiveDeal(ctx context.Context, tg int64, dealID *int64) error {
	var value sql.NullInt64
	if dealID != nil {
		value = sql.NullInt64{Int64: *dealID, Valid: true}
	}
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET active_deal = $1 WHERE tg = $2`, value, tg))
}

// ClearActiveDeal resets the pointer of the given users where it references dealID.
func (s *LedgerService) ClearActiveDeal(ctx context.Context, dealID int64, users ...int64) error {
	for _, tg := range users {
		if _, err := s.q.ExecContext(ctx,
			`UPDATE users SET active_deal = NULL WHERE active_deal = $1 AND tg = $2`, dealID, tg); err != nil {
			return fmt.Errorf("failed to clear active deal of %d: %w", tg, err)
		}
	}
	return nil
}

func (s *LedgerService) AddRating(ctx context.Context, tg int64, delta int) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET rating = rating + $1 WHERE tg = $2`, delta, tg))
}

// ChangeBalance applies a signed delta to the user's balance.
func (s *LedgerService) ChangeBalance(ctx context.Context, tg int64, delta int64) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET balance = balance + $1 WHERE tg = $2`, delta, tg))
}

func (s *LedgerService) SetBalance(ctx context.Context, tg int64, balance int64) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE users SET balance = $1 WHERE tg = $2`, balance, tg))
}

// DebitBalance subtracts amount only if the balance covers it.
func (s *LedgerService) DebitBalance(ctx context.Context, tg int64, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1 WHERE tg = $2 AND balance >= $1`, amount, tg)
	if err := affectOne(res, err); !errors.Is(err, ErrNotFound) {
		return err
	}

	user, err := s.GetUser(ctx, tg)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: user %d has %d, needs %d", ErrInsufficientBalance, tg, user.Balance, amount)
}

// affectOne maps a zero-row update to ErrNotFound.
func affectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
