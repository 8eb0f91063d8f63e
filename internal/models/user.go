package models

// User is a platform account as seen by the ledger. Balance is in minor units.
type User struct {
	TgID         int64   `json:"tg" db:"tg"`
	Username     string  `json:"username" db:"username"`
	Balance      int64   `json:"balance" db:"balance"`
	Rating       int     `json:"rating" db:"rating"`
	Status       *string `json:"status,omitempty" db:"status"`
	TempField    *string `json:"tempField,omitempty" db:"temp_field"`
	ActiveDeal   *int64  `json:"activeDeal,omitempty" db:"active_deal"`
	MailingPhoto *string `json:"mailingPhoto,omitempty" db:"mailing_photo"`
	RegTime      int64   `json:"regTime" db:"reg_time"`
}

// UserStats summarises a user's closed-deal history.
type UserStats struct {
	TgID        int64 `json:"tg"`
	ClosedCount int64 `json:"closedCount"`
	ClosedSum   int64 `json:"closedSum"`
	Rating      int   `json:"rating"`
}
