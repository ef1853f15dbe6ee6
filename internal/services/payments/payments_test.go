package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/domain/coupons"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/infra/cache"
	"microsite-app/internal/testutil"
	addonsvc "microsite-app/internal/services/addons"
	couponsvc "microsite-app/internal/services/coupons"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	paid    VerifiedPayment
	err     error
	started []GatewayRequest
}

func (f *fakeGateway) StartCheckout(_ context.Context, req GatewayRequest) (string, error) {
	f.started = append(f.started, req)
	return "https://checkout.example/" + req.SiteID, f.err
}

func (f *fakeGateway) VerifyPayment(_ context.Context, _ string) (VerifiedPayment, error) {
	return f.paid, f.err
}

type fixture struct {
	db    *gorm.DB
	svc   *Service
	stage *cache.MemoryStore
	user  uint
}

func newFixture(t *testing.T, gw Gateway) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.Clock(now)
	stage := cache.NewMemoryStore()
	svc := NewService(db,
		couponsvc.NewValidator(db).WithClock(clock),
		addonsvc.NewManager(db).WithClock(clock),
		stage,
		Options{Gateway: gw, Prices: Prices{Subscription: 99000, Addon: 3000}, AppURL: "http://app.test"},
	).WithClock(clock)
	u := testutil.CreateUser(t, db, "owner@example.com")
	return fixture{db: db, svc: svc, stage: stage, user: u.ID}
}

func (f fixture) reload(t *testing.T, id string) site.Site {
	t.Helper()
	var s site.Site
	require.NoError(t, f.db.Where("id = ?", id).First(&s).Error)
	return s
}

func redirect(siteID, key string) Callback {
	return Callback{SiteID: siteID, PaymentKey: key, OrderID: "order-1", Amount: "99000"}
}

func TestCompleteStacksOntoFutureExpiration(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(2*time.Hour))

	out, err := f.svc.Complete(context.Background(), f.user, redirect(s.ID, "pk_1"))
	require.NoError(t, err)

	want := now.Add(2 * time.Hour).Add(SubscriptionPeriod)
	assert.True(t, want.Equal(out.ExpiresAt))
	assert.Equal(t, lifecycle.PaidActive, out.Lifecycle.State)

	got := f.reload(t, s.ID)
	assert.True(t, got.IsPaid)
	assert.True(t, want.Equal(got.ExpiresAt.UTC()))
}

func TestCompleteFromExpiredRestartsAtNow(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(-72*time.Hour))

	out, err := f.svc.Complete(context.Background(), f.user, redirect(s.ID, "pk_1"))
	require.NoError(t, err)
	assert.True(t, now.Add(SubscriptionPeriod).Equal(out.ExpiresAt))
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	ctx := context.Background()

	first, err := f.svc.Complete(ctx, f.user, redirect(s.ID, "pk_dup"))
	require.NoError(t, err)
	second, err := f.svc.Complete(ctx, f.user, redirect(s.ID, "pk_dup"))
	require.NoError(t, err)

	assert.True(t, second.AlreadyApplied)
	assert.True(t, first.ExpiresAt.Equal(f.reload(t, s.ID).ExpiresAt))

	var n int64
	require.NoError(t, f.db.Model(&billing.Payment{}).Where("external_ref = ?", "pk_dup").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCompleteRejectsMalformedCallbacks(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))

	cases := map[string]Callback{
		"nothing":        {SiteID: s.ID},
		"no site":        {PaymentKey: "k", OrderID: "o", Amount: "1"},
		"partial triple": {SiteID: s.ID, PaymentKey: "k", Amount: "100"},
		"zero amount":    {SiteID: s.ID, PaymentKey: "k", OrderID: "o", Amount: "0"},
		"decimal amount": {SiteID: s.ID, PaymentKey: "k", OrderID: "o", Amount: "10.5"},
		"both shapes":    {SiteID: s.ID, PaymentID: "cs_1", PaymentKey: "k"},
	}
	for name, cb := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Complete(context.Background(), f.user, cb)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrPaymentCallback)

			var step *apperr.StepError
			require.True(t, errors.As(err, &step))
			assert.Equal(t, 1, step.Step)
		})
	}

	got := f.reload(t, s.ID)
	assert.False(t, got.IsPaid)
}

func TestCompleteChecksOwner(t *testing.T) {
	f := newFixture(t, nil)
	other := testutil.CreateUser(t, f.db, "other@example.com")
	s := testutil.CreateSite(t, f.db, other.ID, false, now.Add(time.Hour))

	_, err := f.svc.Complete(context.Background(), f.user, redirect(s.ID, "pk_1"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCompleteConsumesStagedCouponOnce(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "YEAR10", Value: 9900, Scope: coupons.ScopeSubscription})
	ctx := context.Background()

	_, err := f.svc.StageCoupon(ctx, f.user, s.ID, "year10")
	require.NoError(t, err)

	out, err := f.svc.Complete(ctx, f.user, redirect(s.ID, "pk_a"))
	require.NoError(t, err)
	require.NotNil(t, out.CouponCode)
	assert.Equal(t, "YEAR10", *out.CouponCode)

	out, err = f.svc.Complete(ctx, f.user, redirect(s.ID, "pk_b"))
	require.NoError(t, err)
	assert.Nil(t, out.CouponCode)

	var c coupons.Coupon
	require.NoError(t, f.db.Where("code = ?", "YEAR10").First(&c).Error)
	assert.Equal(t, 1, c.UsedCount)

	var usages int64
	require.NoError(t, f.db.Model(&billing.CouponUsage{}).Count(&usages).Error)
	assert.Equal(t, int64(1), usages)
}

func TestCompleteReportsCouponStepAfterExtending(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	limit := 1
	testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "LAST", Value: 100, Scope: coupons.ScopeSubscription, MaxUses: &limit})
	ctx := context.Background()

	_, err := f.svc.StageCoupon(ctx, f.user, s.ID, "LAST")
	require.NoError(t, err)
	// someone else takes the last use in between
	require.NoError(t, f.svc.coupons.Redeem(ctx, "LAST"))

	out, err := f.svc.Complete(ctx, f.user, redirect(s.ID, "pk_c"))
	var step *apperr.StepError
	require.True(t, errors.As(err, &step))
	assert.Equal(t, 3, step.Step)
	assert.ErrorIs(t, err, apperr.ErrCouponUsageExceeded)
	require.NotNil(t, out)
	assert.True(t, f.reload(t, s.ID).IsPaid)
}

func TestCompleteWithPaymentID(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	gw.paid = VerifiedPayment{Amount: 89000, UserID: f.user, SiteID: s.ID}

	out, err := f.svc.Complete(context.Background(), f.user, Callback{SiteID: s.ID, PaymentID: "cs_test_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(89000), out.Amount)

	var p billing.Payment
	require.NoError(t, f.db.Where("external_ref = ?", "cs_test_1").First(&p).Error)
	assert.Equal(t, billing.MethodStripe, p.Method)

	gw.err = errors.New("unpaid")
	_, err = f.svc.Complete(context.Background(), f.user, Callback{SiteID: s.ID, PaymentID: "cs_test_2"})
	assert.ErrorIs(t, err, apperr.ErrPaymentCallback)
}

func TestLiveCheckoutRejectsUnverifiableRedirect(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))

	_, err := f.svc.Complete(context.Background(), f.user, Callback{SiteID: s.ID, PaymentKey: "made-up", OrderID: "x", Amount: "1"})
	assert.ErrorIs(t, err, apperr.ErrPaymentCallback)
	var step *apperr.StepError
	require.True(t, errors.As(err, &step))
	assert.Equal(t, 1, step.Step)

	got := f.reload(t, s.ID)
	assert.False(t, got.IsPaid)
	var n int64
	require.NoError(t, f.db.Model(&billing.Payment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCompleteRejectsSessionForAnotherSite(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)
	ctx := context.Background()
	siteA := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	siteB := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	gw.paid = VerifiedPayment{Amount: 99000, UserID: f.user, SiteID: siteA.ID}

	_, err := f.svc.Complete(ctx, f.user, Callback{SiteID: siteB.ID, PaymentID: "cs_A"})
	assert.ErrorIs(t, err, apperr.ErrPaymentCallback)
	assert.False(t, f.reload(t, siteB.ID).IsPaid)

	// the webhook for site A still applies the session
	out, err := f.svc.CompleteVerified(ctx, f.user, siteA.ID, "cs_A", 99000, billing.MethodStripe)
	require.NoError(t, err)
	assert.False(t, out.AlreadyApplied)
	assert.True(t, f.reload(t, siteA.ID).IsPaid)

	other := testutil.CreateUser(t, f.db, "other@example.com")
	gw.paid = VerifiedPayment{Amount: 99000, UserID: other.ID, SiteID: siteB.ID}
	_, err = f.svc.Complete(ctx, f.user, Callback{SiteID: siteB.ID, PaymentID: "cs_other"})
	assert.ErrorIs(t, err, apperr.ErrPaymentCallback)
	assert.False(t, f.reload(t, siteB.ID).IsPaid)
}

func TestCompleteReportsLedgerStepAfterExtending(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("fail_ledger", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			_ = tx.AddError(errors.New("ledger unavailable"))
		}
	}))

	out, err := f.svc.Complete(context.Background(), f.user, redirect(s.ID, "pk_l"))
	var step *apperr.StepError
	require.True(t, errors.As(err, &step))
	assert.Equal(t, 4, step.Step)
	assert.Equal(t, "ledger", step.Name)
	assert.ErrorIs(t, err, apperr.ErrRemoteStore)

	require.NotNil(t, out)
	want := now.Add(time.Hour).Add(SubscriptionPeriod)
	assert.True(t, want.Equal(out.ExpiresAt))
	got := f.reload(t, s.ID)
	assert.True(t, got.IsPaid)
	assert.True(t, want.Equal(got.ExpiresAt.UTC()))
	require.NotNil(t, got.LastPaymentRef)
	assert.Equal(t, "pk_l", *got.LastPaymentRef)
}

func TestStartCheckout(t *testing.T) {
	t.Run("mock redirect", func(t *testing.T) {
		f := newFixture(t, nil)
		s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))

		out, err := f.svc.StartCheckout(context.Background(), f.user, s.ID)
		require.NoError(t, err)
		assert.True(t, out.Mock)
		assert.Equal(t, int64(99000), out.Amount)
		assert.Contains(t, out.RedirectURL, "http://app.test/payments/success?")
		assert.Contains(t, out.RedirectURL, "amount=99000")
	})

	t.Run("gateway with staged discount", func(t *testing.T) {
		gw := &fakeGateway{}
		f := newFixture(t, gw)
		s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
		testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "TENK", Value: 10000, Scope: coupons.ScopeSubscription})
		_, err := f.svc.StageCoupon(context.Background(), f.user, s.ID, "TENK")
		require.NoError(t, err)

		out, err := f.svc.StartCheckout(context.Background(), f.user, s.ID)
		require.NoError(t, err)
		assert.False(t, out.Mock)
		require.Len(t, gw.started, 1)
		assert.Equal(t, int64(89000), gw.started[0].Amount)
	})

	t.Run("fully covered by coupon", func(t *testing.T) {
		f := newFixture(t, nil)
		s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
		testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "FREEYEAR", Value: 99000, Scope: coupons.ScopeSubscription})
		_, err := f.svc.StageCoupon(context.Background(), f.user, s.ID, "FREEYEAR")
		require.NoError(t, err)

		out, err := f.svc.StartCheckout(context.Background(), f.user, s.ID)
		require.NoError(t, err)
		require.NotNil(t, out.Completed)
		assert.True(t, f.reload(t, s.ID).IsPaid)

		var p billing.Payment
		require.NoError(t, f.db.Where("site_id = ?", s.ID).First(&p).Error)
		assert.Equal(t, billing.MethodCoupon, p.Method)
		assert.Equal(t, int64(0), p.Amount)
	})

	t.Run("addon coupon cannot be staged", func(t *testing.T) {
		f := newFixture(t, nil)
		s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
		testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "SAVE3000", Value: 3000})

		_, err := f.svc.StageCoupon(context.Background(), f.user, s.ID, "SAVE3000")
		assert.ErrorIs(t, err, apperr.ErrCouponScope)
	})
}

func TestPurchaseWithLegacyAddonCoupon(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	limit := 10
	testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "SAVE3000", Value: 3000, MaxUses: &limit})
	ctx := context.Background()

	out, err := f.svc.Purchase(ctx, f.user, s.ID, addons.TypeInquiry, PurchaseInput{
		Method:     addons.PurchaseCoupon,
		CouponCode: "SAVE3000",
		Config:     []byte(`{"notification_email":"owner@example.com"}`),
	})
	require.NoError(t, err)
	assert.True(t, out.Addon.IsActive)
	assert.True(t, out.Addon.IsPurchased)
	assert.Equal(t, addons.PurchaseCoupon, out.Addon.PurchaseType)
	require.NotNil(t, out.Addon.CouponCode)
	assert.Equal(t, "SAVE3000", *out.Addon.CouponCode)
	assert.Equal(t, int64(0), out.Payment.Amount)

	var c coupons.Coupon
	require.NoError(t, f.db.Where("code = ?", "SAVE3000").First(&c).Error)
	assert.Equal(t, 1, c.UsedCount)

	_, err = f.svc.Purchase(ctx, f.user, s.ID, addons.TypeInquiry, PurchaseInput{Method: addons.PurchaseCard})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPurchaseRejectsSubscriptionCouponForAddon(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "BIG5000", Value: 5000})

	_, err := f.svc.Purchase(context.Background(), f.user, s.ID, addons.TypeQnA, PurchaseInput{
		Method:     addons.PurchaseCoupon,
		CouponCode: "BIG5000",
	})
	assert.ErrorIs(t, err, apperr.ErrCouponScope)

	var c coupons.Coupon
	require.NoError(t, f.db.Where("code = ?", "BIG5000").First(&c).Error)
	assert.Equal(t, 0, c.UsedCount)
}

func TestPurchaseByCard(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, true, now.Add(100*24*time.Hour))

	out, err := f.svc.Purchase(context.Background(), f.user, s.ID, addons.TypeQnA, PurchaseInput{Method: addons.PurchaseCard})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), out.Payment.Amount)
	assert.Equal(t, billing.PurposeAddon, out.Payment.Purpose)
	assert.Equal(t, addons.PurchaseCard, out.Addon.PurchaseType)
}

func TestPurchaseByCardNeedsMockCheckout(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	s := testutil.CreateSite(t, f.db, f.user, true, now.Add(100*24*time.Hour))

	_, err := f.svc.Purchase(context.Background(), f.user, s.ID, addons.TypeQnA, PurchaseInput{Method: addons.PurchaseCard})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var n int64
	require.NoError(t, f.db.Model(&addons.SiteAddon{}).Where("site_id = ?", s.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPurchaseInvalidConfigDoesNotRedeem(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	testutil.CreateCoupon(t, f.db, coupons.Coupon{Code: "SAVE3000", Value: 3000})

	_, err := f.svc.Purchase(context.Background(), f.user, s.ID, addons.TypeInquiry, PurchaseInput{
		Method:     addons.PurchaseCoupon,
		CouponCode: "SAVE3000",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var c coupons.Coupon
	require.NoError(t, f.db.Where("code = ?", "SAVE3000").First(&c).Error)
	assert.Equal(t, 0, c.UsedCount)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, nil)
	s := testutil.CreateSite(t, f.db, f.user, false, now.Add(time.Hour))
	_, err := f.svc.Complete(context.Background(), f.user, redirect(s.ID, "pk_h"))
	require.NoError(t, err)

	list, err := f.svc.History(context.Background(), f.user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pk_h", list[0].ExternalRef)
}
