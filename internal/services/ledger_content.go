package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garant/backend/internal/models"
)

func (s *LedgerService) AddAdButton(ctx context.Context, name, text string, photoID *string) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO ads (button_name, button_text, photo_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
		name, text, nullString(photoID)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ad button: %w", err)
	}
	return id, nil
}

func (s *LedgerService) GetAds(ctx context.Context) ([]models.Ad, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, button_name, button_text, photo_id FROM ads ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		var (
			ad    models.Ad
			photo sql.NullString
		)
		if err := rows.Scan(&ad.ID, &ad.ButtonName, &ad.ButtonText, &photo); err != nil {
			return nil, err
		}
		ad.PhotoID = nullStringPtr(photo)
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

func (s *LedgerService) RemoveAdButton(ctx context.Context, id int64) error {
	return affectOne(s.q.ExecContext(ctx, `DELETE FROM ads WHERE id = $1`, id))
}

func (s *LedgerService) ChangeButtonText(ctx context.Context, id int64, text string) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE ads SET button_text = $1 WHERE id = $2`, text, id))
}

// AddMailing stores an unconfirmed mailing scheduled for sendTime.
func (s *LedgerService) AddMailing(ctx context.Context, text string, createdBy, sendTime int64, photoID *string) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO mailings (mailing_text, photo_id, send_time, created_by, confirmed, status)
		VALUES ($1, $2, $3, $4, 0, 0)
		RETURNING id`,
		text, nullString(photoID), sendTime, createdBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mailing: %w", err)
	}
	return id, nil
}

const mailingColumns = `id, mailing_text, photo_id, send_time, created_by, confirmed, status`

func scanMailing(row rowScanner) (*models.Mailing, error) {
	var (
		m     models.Mailing
		photo sql.NullString
	)
	if err := row.Scan(&m.ID, &m.MailingText, &photo, &m.SendTime, &m.CreatedBy, &m.Confirmed, &m.Status); err != nil {
		return nil, err
	}
	m.PhotoID = nullStringPtr(photo)
	return &m, nil
}

// GetMailing returns nil when the mailing does not exist.
func (s *LedgerService) GetMailing(ctx context.Context, id int64) (*models.Mailing, error) {
	mailing, err := scanMailing(s.q.QueryRowContext(ctx, `SELECT `+mailingColumns+` FROM mailings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return mailing, err
}

func (s *LedgerService) ConfirmMailing(ctx context.Context, id int64) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE mailings SET confirmed = 1 WHERE id = $1`, id))
}

func (s *LedgerService) DeleteMailing(ctx context.Context, id int64) error {
	return affectOne(s.q.ExecContext(ctx, `DELETE FROM mailings WHERE id = $1`, id))
}

// MailingsToSend lists confirmed, unsent mailings scheduled before timestamp.
func (s *LedgerService) MailingsToSend(ctx context.Context, timestamp int64) ([]models.Mailing, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+mailingColumns+` FROM mailings
		WHERE send_time < $1 AND confirmed = 1 AND status = 0
		ORDER BY send_time`, timestamp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mailings []models.Mailing
	for rows.Next() {
		m, err := scanMailing(rows)
		if err != nil {
			return nil, err
		}
		mailings = append(mailings, *m)
	}
	return mailings, rows.Err()
}

func (s *LedgerService) UpdateMailingStatus(ctx context.Context, id int64, status int) error {
	return affectOne(s.q.ExecContext(ctx, `UPDATE mailings SET status = $1 WHERE id = $2`, status, id))
}
