package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/coupons"

	"gorm.io/gorm"
)

// Result is a coupon that passed every check for the requested scope.
type Result struct {
	Coupon        coupons.Coupon `json:"coupon"`
	DiscountValue int64          `json:"discount_value"`
}

type Validator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewValidator(db *gorm.DB) *Validator {
	return &Validator{db: db, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs existence, scope, expiry and usage checks in that order and
// stops at the first failure. It never mutates the coupon.
func (v *Validator) Validate(ctx context.Context, code string, scope coupons.Scope) (*Result, error) {
	code = coupons.NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("coupon code is required")
	}

	var c coupons.Coupon
	err := v.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("coupon " + code)
	}
	if err != nil {
		return nil, apperr.Store("load coupon", err)
	}

	if !c.Allows(scope) {
		return nil, fmt.Errorf("%w: %s is not valid for %s", apperr.ErrCouponScope, code, scope)
	}
	if c.Expired(v.now()) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrCouponExpired, code)
	}
	if c.Exhausted() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrCouponUsageExceeded, code)
	}

	return &Result{Coupon: c, DiscountValue: c.Value}, nil
}

// Redeem increments used_count in one conditional statement so concurrent
// redemptions can never push it past max_uses.
func (v *Validator) Redeem(ctx context.Context, code string) error {
	code = coupons.NormalizeCode(code)
	res := v.db.WithContext(ctx).
		Model(&coupons.Coupon{}).
		Where("code = ? AND (max_uses IS NULL OR used_count < max_uses)", code).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return apperr.Store("redeem coupon", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := v.db.WithContext(ctx).Model(&coupons.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return apperr.Store("redeem coupon", err)
	}
	if count == 0 {
		return apperr.NotFound("coupon " + code)
	}
	return fmt.Errorf("%w: %s", apperr.ErrCouponUsageExceeded, code)
}

type CreateInput struct {
	Code        string
	Value       int64
	Description string
	Scope       coupons.Scope
	ExpiresAt   *time.Time
	MaxUses     *int
}

func (v *Validator) Create(ctx context.Context, in CreateInput) (*coupons.Coupon, error) {
	code := coupons.NormalizeCode(in.Code)
	switch {
	case code == "":
		return nil, apperr.Validation("coupon code is required")
	case strings.ContainsAny(code, " \t"):
		return nil, apperr.Validation("coupon code must not contain spaces")
	case in.Value < 0:
		return nil, apperr.Validation("coupon value must not be negative")
	case !in.Scope.Valid():
		return nil, apperr.Validation("scope must be addon, subscription or any")
	case in.MaxUses != nil && *in.MaxUses < 1:
		return nil, apperr.Validation("max uses must be at least 1")
	}

	c := coupons.Coupon{
		Code:        code,
		Value:       in.Value,
		Description: in.Description,
		Scope:       in.Scope,
		ExpiresAt:   in.ExpiresAt,
		MaxUses:     in.MaxUses,
	}

	var existing int64
	if err := v.db.WithContext(ctx).Model(&coupons.Coupon{}).Where("code = ?", code).Count(&existing).Error; err != nil {
		return nil, apperr.Store("create coupon", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: coupon %s already exists", apperr.ErrConflict, code)
	}
	if err := v.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Store("create coupon", err)
	}
	return &c, nil
}

func (v *Validator) List(ctx context.Context) ([]coupons.Coupon, error) {
	var list []coupons.Coupon
	if err := v.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Store("list coupons", err)
	}
	return list, nil
}
