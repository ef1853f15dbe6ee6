package payments

import (
	"context"
	"fmt"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/coupons"
	couponsvc "microsite-app/internal/services/coupons"
)

func stageKey(userID uint, siteID string) string {
	return fmt.Sprintf("coupon:stage:%d:%s", userID, siteID)
}

// StageCoupon validates a subscription coupon and parks it until the
// checkout for this site completes. Staging again replaces the previous code.
func (s *Service) StageCoupon(ctx context.Context, userID uint, siteID, code string) (*couponsvc.Result, error) {
	res, err := s.coupons.Validate(ctx, code, coupons.ScopeSubscription)
	if err != nil {
		return nil, err
	}
	if err := s.stage.Set(ctx, stageKey(userID, siteID), res.Coupon.Code, s.stageTTL); err != nil {
		return nil, apperr.Store("stage coupon", err)
	}
	return res, nil
}

// stagedDiscount reads the staged coupon without consuming it.
func (s *Service) stagedDiscount(ctx context.Context, userID uint, siteID string) (string, int64, error) {
	code, ok, err := s.stage.Get(ctx, stageKey(userID, siteID))
	if err != nil {
		return "", 0, apperr.Store("read staged coupon", err)
	}
	if !ok {
		return "", 0, nil
	}

	res, err := s.coupons.Validate(ctx, code, coupons.ScopeSubscription)
	if err != nil {
		return "", 0, err
	}
	return code, res.DiscountValue, nil
}
