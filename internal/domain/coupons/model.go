package coupons

import (
	"strings"
	"time"
)

type Scope string

const (
	ScopeAddon        Scope = "addon"
	ScopeSubscription Scope = "subscription"
	ScopeAny          Scope = "any"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAddon, ScopeSubscription, ScopeAny:
		return true
	}
	return false
}

// Legacy add-on coupons were recognised by their value or a marker in the
// description. Only rows without an explicit scope fall back to this.
const (
	LegacyAddonValue  int64 = 3000
	LegacyAddonMarker       = "[addon]"
)

type Coupon struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"not null;uniqueIndex:idx_coupons_code" json:"code"`
	Value       int64      `gorm:"not null" json:"value"`
	Description string     `json:"description"`
	Scope       Scope      `gorm:"type:varchar(16);not null;default:''" json:"scope"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	MaxUses     *int       `json:"max_uses,omitempty"`
	UsedCount   int        `gorm:"not null;default:0" json:"used_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows reports whether the coupon may be applied to the requested scope.
func (c Coupon) Allows(want Scope) bool {
	effective := c.Scope
	if effective == "" {
		effective = ScopeSubscription
		if c.Value == LegacyAddonValue || strings.Contains(c.Description, LegacyAddonMarker) {
			effective = ScopeAddon
		}
	}
	return effective == ScopeAny || effective == want
}

// Expired is inclusive: a coupon expiring exactly now is no longer usable.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

func (c Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// NormalizeCode upper-cases and trims a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
