package addons

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeInquiry Type = "inquiry"
	TypeQnA     Type = "qna"
	TypeDomain  Type = "domain"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInquiry, TypeQnA, TypeDomain:
		return true
	}
	return false
}

type PurchaseType string

const (
	PurchaseNone   PurchaseType = "none"
	PurchaseCard   PurchaseType = "card"
	PurchaseCoupon PurchaseType = "coupon"
	PurchaseManual PurchaseType = "manual"
)

// SiteAddon is the one row per (site, add-on type).
type SiteAddon struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SiteID    string `gorm:"type:uuid;not null;uniqueIndex:idx_site_addons_site_type" json:"site_id"`
	AddonType Type   `gorm:"type:varchar(32);not null;uniqueIndex:idx_site_addons_site_type" json:"addon_type"`

	IsActive     bool            `gorm:"not null;default:false" json:"is_active"`
	IsPurchased  bool            `gorm:"not null;default:false" json:"is_purchased"`
	PurchaseType PurchaseType    `gorm:"type:varchar(16);not null;default:'none'" json:"purchase_type"`
	CouponCode   *string         `json:"coupon_code,omitempty"`
	Config       json.RawMessage `gorm:"type:jsonb;not null;default:'{}'" json:"config"`
	PurchasedAt  *time.Time      `json:"purchased_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
