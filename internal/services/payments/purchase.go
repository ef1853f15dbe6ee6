package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/domain/coupons"
	"microsite-app/internal/domain/site"
	addonsvc "microsite-app/internal/services/addons"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseInput struct {
	Method     addons.PurchaseType
	CouponCode string
	Config     json.RawMessage
}

type PurchaseOutcome struct {
	Addon   *addons.SiteAddon `json:"addon"`
	Payment *billing.Payment  `json:"payment"`
}

// Purchase buys an add-on with a coupon or a (mock) card charge. An add-on
// that is already purchased is never charged again.
func (s *Service) Purchase(ctx context.Context, userID uint, siteID string, t addons.Type, in PurchaseInput) (*PurchaseOutcome, error) {
	if in.Method != addons.PurchaseCard && in.Method != addons.PurchaseCoupon {
		return nil, apperr.Validation("method must be card or coupon")
	}
	// the card path below charges nothing; it only stands in for a gateway
	if in.Method == addons.PurchaseCard && s.gateway != nil {
		return nil, apperr.Validation("card purchases of add-ons are not offered with live checkout, use a coupon")
	}
	cfg, err := s.addons.PurchaseConfig(ctx, siteID, t, in.Config)
	if err != nil {
		return nil, err
	}

	var st site.Site
	err = s.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", siteID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, apperr.Store("load site", err)
	}
	if !st.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: site belongs to another user", apperr.ErrForbidden)
	}

	existing, err := s.addons.Get(ctx, siteID, t)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsPurchased {
		return nil, fmt.Errorf("%w: %s is already purchased", apperr.ErrConflict, t)
	}

	payment := billing.Payment{
		UserID:    userID,
		SiteID:    siteID,
		Status:    billing.StatusPaid,
		Purpose:   billing.PurposeAddon,
		AddonType: ptr(string(t)),
		CreatedAt: s.now(),
	}
	record := addonsvc.PurchaseRecord{SiteID: siteID, Type: t, Config: cfg, Method: in.Method}

	switch in.Method {
	case addons.PurchaseCoupon:
		res, err := s.coupons.Validate(ctx, in.CouponCode, coupons.ScopeAddon)
		if err != nil {
			return nil, err
		}
		if err := s.coupons.Redeem(ctx, res.Coupon.Code); err != nil {
			return nil, err
		}
		code := res.Coupon.Code
		record.CouponCode = &code
		payment.CouponCode = &code
		payment.Method = billing.MethodCoupon
		payment.ExternalRef = "coupon_" + uuid.NewString()
		payment.Amount = 0

	case addons.PurchaseCard:
		payment.Method = billing.MethodCard
		payment.ExternalRef = "card_" + uuid.NewString()
		payment.Amount = s.prices.Addon
	}

	row, err := s.addons.RecordPurchase(ctx, record)
	if err != nil {
		if record.CouponCode != nil {
			s.log.Error("❌ Coupon redeemed but add-on purchase not recorded",
				"site_id", siteID, "addon", t, "coupon", *record.CouponCode, "err", err)
		}
		return nil, err
	}

	if record.CouponCode != nil {
		usage := billing.CouponUsage{
			CouponCode: *record.CouponCode,
			UserID:     userID,
			SiteID:     siteID,
			PaymentRef: payment.ExternalRef,
			CreatedAt:  s.now(),
		}
		if err := s.db.WithContext(ctx).Create(&usage).Error; err != nil {
			s.log.Error("❌ Failed to record coupon usage", "site_id", siteID, "coupon", usage.CouponCode, "err", err)
		}
	}

	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		s.log.Error("❌ Add-on active but ledger row missing", "site_id", siteID, "addon", t, "ref", payment.ExternalRef, "err", err)
		return &PurchaseOutcome{Addon: row}, apperr.Store("append ledger", err)
	}

	s.log.Info("🧩 Add-on purchased", "site_id", siteID, "addon", t, "method", in.Method)
	return &PurchaseOutcome{Addon: row, Payment: &payment}, nil
}

func ptr[T any](v T) *T { return &v }
