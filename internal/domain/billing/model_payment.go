package billing

import "time"

type Purpose string

const (
	PurposeSubscription Purpose = "subscription"
	PurposeAddon        Purpose = "addon"
)

type Method string

const (
	MethodCard   Method = "card"
	MethodStripe Method = "stripe"
	MethodCoupon Method = "coupon"
)

const StatusPaid = "paid"

// Payment is an append-only ledger row. ExternalRef is the provider's
// payment id (or a generated one for coupon-only purchases) and is unique.
type Payment struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index" json:"user_id"`
	SiteID      string  `gorm:"type:uuid;not null;index" json:"site_id"`
	Amount      int64   `gorm:"not null" json:"amount"`
	Method      Method  `gorm:"type:varchar(16);not null" json:"method"`
	CouponCode  *string `json:"coupon_code,omitempty"`
	ExternalRef string  `gorm:"not null;uniqueIndex:idx_payments_external_ref" json:"external_ref"`
	Status      string  `gorm:"type:varchar(16);not null" json:"status"`
	Purpose     Purpose `gorm:"type:varchar(16);not null" json:"purpose"`
	AddonType   *string `json:"addon_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type CouponUsage struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CouponCode string `gorm:"not null;index" json:"coupon_code"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	SiteID     string `gorm:"type:uuid;not null" json:"site_id"`
	PaymentRef string `json:"payment_ref"`

	CreatedAt time.Time `json:"created_at"`
}
