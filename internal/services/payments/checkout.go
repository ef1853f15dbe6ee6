package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/domain/site"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutStart struct {
	RedirectURL string   `json:"redirect_url,omitempty"`
	Amount      int64    `json:"amount"`
	CouponCode  string   `json:"coupon_code,omitempty"`
	Mock        bool     `json:"mock"`
	Completed   *Outcome `json:"completed,omitempty"`
}

// StartCheckout prices a one-year subscription for the site, minus any
// staged coupon, and returns where to send the buyer. A checkout fully covered
// by the coupon completes immediately.
func (s *Service) StartCheckout(ctx context.Context, userID uint, siteID string) (*CheckoutStart, error) {
	var st site.Site
	err := s.db.WithContext(ctx).Select("id", "user_id", "name").Where("id = ?", siteID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, apperr.Store("load site", err)
	}
	if !st.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: site belongs to another user", apperr.ErrForbidden)
	}

	code, discount, err := s.stagedDiscount(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}
	amount := s.prices.Subscription - discount
	if amount < 0 {
		amount = 0
	}
	out := &CheckoutStart{Amount: amount, CouponCode: code}

	if amount == 0 {
		ref := "coupon_" + uuid.NewString()
		outcome, err := s.CompleteVerified(ctx, userID, siteID, ref, 0, billing.MethodCoupon)
		if err != nil {
			return nil, err
		}
		out.Completed = outcome
		return out, nil
	}

	if s.gateway != nil {
		redirect, err := s.gateway.StartCheckout(ctx, GatewayRequest{
			UserID:      userID,
			SiteID:      siteID,
			Amount:      amount,
			ProductName: "1 year subscription: " + st.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
		}
		out.RedirectURL = redirect
		return out, nil
	}

	out.Mock = true
	out.RedirectURL = s.mockRedirect(siteID, amount)
	return out, nil
}

// mockRedirect imitates a provider sending the buyer back with
// paymentKey/orderId/amount.
func (s *Service) mockRedirect(siteID string, amount int64) string {
	q := url.Values{}
	q.Set("siteId", siteID)
	q.Set("paymentKey", "mock_"+uuid.NewString())
	q.Set("orderId", "order_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	q.Set("amount", strconv.FormatInt(amount, 10))
	return strings.TrimRight(s.appURL, "/") + "/payments/success?" + q.Encode()
}
