package models

// Payment statuses. Codes above PaymentFailed belong to callers.
const (
	PaymentPending   = 0
	PaymentConfirmed = 1
	PaymentFailed    = 2
)

// Payment types written by the core itself.
const (
	PaymentTypeCheque = "cheque"
	PaymentTypeCoupon = "coupon"
)

type Payment struct {
	ID     string `json:"id" db:"id"`
	Sum    int64  `json:"sum" db:"sum"` // in minor units
	Type   string `json:"type" db:"type"`
	Status int    `json:"status" db:"status"`
	UserID int64  `json:"userId" db:"user_id"`
}

// Coupon is an internal promo code credited to the balance on activation.
type Coupon struct {
	ID             int64  `json:"id" db:"id"`
	Sum            int64  `json:"sum" db:"sum"`
	Code           string `json:"code" db:"code"`
	Activated      int    `json:"activated" db:"activated"`
	MaxActivations int    `json:"maxActivations" db:"max_activations"`
}

type Ad struct {
	ID         int64   `json:"id" db:"id"`
	ButtonName string  `json:"buttonName" db:"button_name"`
	ButtonText string  `json:"buttonText" db:"button_text"`
	PhotoID    *string `json:"photoId,omitempty" db:"photo_id"`
}

type Mailing struct {
	ID          int64   `json:"id" db:"id"`
	MailingText string  `json:"mailingText" db:"mailing_text"`
	PhotoID     *string `json:"photoId,omitempty" db:"photo_id"`
	SendTime    int64   `json:"sendTime" db:"send_time"`
	CreatedBy   int64   `json:"createdBy" db:"created_by"`
	Confirmed   bool    `json:"confirmed" db:"confirmed"`
	Status      int     `json:"status" db:"status"`
}
