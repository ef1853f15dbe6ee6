package coupons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
		want   Scope
		ok     bool
	}{
		{"explicit addon", Coupon{Scope: ScopeAddon, Value: 5000}, ScopeAddon, true},
		{"explicit addon for subscription", Coupon{Scope: ScopeAddon}, ScopeSubscription, false},
		{"any", Coupon{Scope: ScopeAny}, ScopeAddon, true},
		{"legacy value", Coupon{Value: 3000}, ScopeAddon, true},
		{"legacy marker", Coupon{Value: 100, Description: "free form [addon]"}, ScopeAddon, true},
		{"legacy plain", Coupon{Value: 5000, Description: "spring sale"}, ScopeAddon, false},
		{"legacy plain subscription", Coupon{Value: 5000}, ScopeSubscription, true},
		{"explicit subscription ignores heuristic", Coupon{Scope: ScopeSubscription, Value: 3000}, ScopeAddon, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.coupon.Allows(tt.want))
		})
	}
}

func TestExpiredAndExhausted(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	limit := 2

	assert.True(t, Coupon{ExpiresAt: &past}.Expired(now))
	assert.True(t, Coupon{ExpiresAt: &now}.Expired(now))
	assert.False(t, Coupon{}.Expired(now))

	assert.False(t, Coupon{MaxUses: &limit, UsedCount: 1}.Exhausted())
	assert.True(t, Coupon{MaxUses: &limit, UsedCount: 2}.Exhausted())
	assert.False(t, Coupon{UsedCount: 1000}.Exhausted())
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE3000", NormalizeCode("  save3000 "))
}
