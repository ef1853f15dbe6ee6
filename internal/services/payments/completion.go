package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"

	"gorm.io/gorm"
)

const (
	stepValidate = 1
	stepExtend   = 2
	stepCoupon   = 3
	stepLedger   = 4
)

var stepNames = map[int]string{
	stepValidate: "validate",
	stepExtend:   "extend",
	stepCoupon:   "coupon",
	stepLedger:   "ledger",
}

func stepErr(step int, err error) error {
	return &apperr.StepError{Step: step, Name: stepNames[step], Err: err}
}

// Outcome describes a completed (or previously completed) payment.
type Outcome struct {
	SiteID         string             `json:"site_id"`
	PaymentRef     string             `json:"payment_ref"`
	Amount         int64              `json:"amount"`
	ExpiresAt      time.Time          `json:"expires_at"`
	CouponCode     *string            `json:"coupon_code,omitempty"`
	AlreadyApplied bool               `json:"already_applied"`
	Lifecycle      lifecycle.Snapshot `json:"lifecycle"`
}

// Complete handles the provider's success redirect for a subscription
// payment.
func (s *Service) Complete(ctx context.Context, userID uint, cb Callback) (*Outcome, error) {
	ch, err := cb.parse()
	if err != nil {
		return nil, stepErr(stepValidate, err)
	}

	if s.gateway != nil {
		if err := s.verify(ctx, userID, &ch); err != nil {
			return nil, stepErr(stepValidate, err)
		}
	} else if ch.method == billing.MethodStripe {
		ch.amount = s.prices.Subscription
	}
	return s.complete(ctx, userID, ch)
}

// verify confirms a redirect against the live gateway. Only the hosted
// session shape can be verified, and the session must have been started by
// this user for this site.
func (s *Service) verify(ctx context.Context, userID uint, ch *charge) error {
	if ch.method != billing.MethodStripe {
		return fmt.Errorf("%w: paymentId is required when live checkout is enabled", apperr.ErrPaymentCallback)
	}
	v, err := s.gateway.VerifyPayment(ctx, ch.ref)
	if err != nil {
		if errors.Is(err, apperr.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", apperr.ErrPaymentCallback, err)
	}
	if v.SiteID != ch.siteID || v.UserID != userID {
		return fmt.Errorf("%w: payment %s was not made for this site", apperr.ErrPaymentCallback, ch.ref)
	}
	ch.amount = v.Amount
	return nil
}

// CompleteVerified applies a payment already confirmed server side, such as a
// Stripe webhook event or a checkout fully covered by a coupon.
func (s *Service) CompleteVerified(ctx context.Context, userID uint, siteID, ref string, amount int64, method billing.Method) (*Outcome, error) {
	if siteID == "" || ref == "" || amount < 0 {
		return nil, stepErr(stepValidate, fmt.Errorf("%w: incomplete verified payment", apperr.ErrPaymentCallback))
	}
	return s.complete(ctx, userID, charge{siteID: siteID, ref: ref, amount: amount, method: method})
}

func (s *Service) complete(ctx context.Context, userID uint, ch charge) (*Outcome, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	// 1. ownership and duplicate detection
	var st site.Site
	err := db.Where("id = ?", ch.siteID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stepErr(stepValidate, apperr.NotFound("site"))
	}
	if err != nil {
		return nil, stepErr(stepValidate, apperr.Store("load site", err))
	}
	if !st.OwnedBy(userID) {
		return nil, stepErr(stepValidate, fmt.Errorf("%w: site belongs to another user", apperr.ErrForbidden))
	}

	var seen int64
	if err := db.Model(&billing.Payment{}).Where("external_ref = ?", ch.ref).Count(&seen).Error; err != nil {
		return nil, stepErr(stepValidate, apperr.Store("check ledger", err))
	}
	if seen > 0 || (st.LastPaymentRef != nil && *st.LastPaymentRef == ch.ref) {
		return s.alreadyApplied(st, ch, now), nil
	}

	// 2. extend: stack onto a future expiration, restart from now otherwise
	base := st.ExpiresAt
	if !base.After(now) {
		base = now
	}
	newExpiry := base.Add(SubscriptionPeriod)

	res := db.Model(&site.Site{}).
		Where("id = ? AND (last_payment_ref IS NULL OR last_payment_ref <> ?)", st.ID, ch.ref).
		Updates(map[string]interface{}{
			"is_paid":          true,
			"expires_at":       newExpiry,
			"last_payment_ref": ch.ref,
		})
	if res.Error != nil {
		return nil, stepErr(stepExtend, apperr.Store("extend site", res.Error))
	}
	if res.RowsAffected == 0 {
		// a concurrent completion with the same reference won
		if err := db.Where("id = ?", st.ID).First(&st).Error; err != nil {
			return nil, stepErr(stepExtend, apperr.Store("reload site", err))
		}
		return s.alreadyApplied(st, ch, now), nil
	}

	out := &Outcome{
		SiteID:     st.ID,
		PaymentRef: ch.ref,
		Amount:     ch.amount,
		ExpiresAt:  newExpiry,
		Lifecycle:  lifecycle.Evaluate(now, newExpiry, true),
	}

	// From here on the site is already extended. Failures are reported and
	// logged but not rolled back.
	code, err := s.consumeStagedCoupon(ctx, userID, st.ID, ch.ref)
	if err != nil {
		s.diverged(stepCoupon, ch, err)
		return out, stepErr(stepCoupon, err)
	}
	out.CouponCode = code

	method := ch.method
	if code != nil && ch.amount == 0 {
		method = billing.MethodCoupon
	}
	payment := billing.Payment{
		UserID:      userID,
		SiteID:      st.ID,
		Amount:      ch.amount,
		Method:      method,
		CouponCode:  code,
		ExternalRef: ch.ref,
		Status:      billing.StatusPaid,
		Purpose:     billing.PurposeSubscription,
		CreatedAt:   now,
	}
	if err := db.Create(&payment).Error; err != nil {
		err = apperr.Store("append ledger", err)
		s.diverged(stepLedger, ch, err)
		return out, stepErr(stepLedger, err)
	}

	s.log.Info("💳 Payment applied",
		"site_id", st.ID, "ref", ch.ref, "amount", ch.amount, "expires_at", newExpiry)
	return out, nil
}

// consumeStagedCoupon redeems the coupon staged for this checkout, if any. The
// staged entry is removed on read so it can be applied at most once.
func (s *Service) consumeStagedCoupon(ctx context.Context, userID uint, siteID, ref string) (*string, error) {
	code, ok, err := s.stage.Take(ctx, stageKey(userID, siteID))
	if err != nil {
		return nil, apperr.Store("read staged coupon", err)
	}
	if !ok {
		return nil, nil
	}
	if err := s.coupons.Redeem(ctx, code); err != nil {
		return nil, err
	}
	usage := billing.CouponUsage{
		CouponCode: code,
		UserID:     userID,
		SiteID:     siteID,
		PaymentRef: ref,
		CreatedAt:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&usage).Error; err != nil {
		return &code, apperr.Store("record coupon usage", err)
	}
	return &code, nil
}

func (s *Service) alreadyApplied(st site.Site, ch charge, now time.Time) *Outcome {
	return &Outcome{
		SiteID:         st.ID,
		PaymentRef:     ch.ref,
		Amount:         ch.amount,
		ExpiresAt:      st.ExpiresAt,
		AlreadyApplied: true,
		Lifecycle:      lifecycle.Evaluate(now, st.ExpiresAt, st.IsPaid),
	}
}

func (s *Service) diverged(step int, ch charge, err error) {
	s.log.Error("❌ Site extended but payment bookkeeping failed",
		"step", step, "step_name", stepNames[step], "site_id", ch.siteID, "ref", ch.ref, "err", err)
}
