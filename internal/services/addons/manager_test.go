package addons

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inquiryCfg = `{"notification_email":"owner@example.com"}`

func setup(t *testing.T, isPaid bool) (*Manager, string) {
	t.Helper()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "owner@example.com")
	s := testutil.CreateSite(t, db, u.ID, isPaid, time.Now().Add(time.Hour))
	return NewManager(db), s.ID
}

func TestInstallIsIdempotent(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := m.Install(ctx, siteID, addons.TypeInquiry, json.RawMessage(inquiryCfg))
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, m.db.Model(&addons.SiteAddon{}).Where("site_id = ?", siteID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	row, err := m.Get(ctx, siteID, addons.TypeInquiry)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
	assert.False(t, row.IsPurchased)
	assert.Equal(t, addons.PurchaseNone, row.PurchaseType)
}

func TestInstallValidatesBeforeTouchingStore(t *testing.T) {
	m, _ := setup(t, false)

	// an unknown site would be NotFound; validation must win
	_, err := m.Install(context.Background(), "missing", addons.TypeInquiry, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = m.Install(context.Background(), "missing", addons.TypeDomain, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = m.Install(context.Background(), "missing", addons.TypeQnA, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTogglePreservesPurchaseState(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()
	code := "SAVE3000"

	_, err := m.RecordPurchase(ctx, PurchaseRecord{
		SiteID:     siteID,
		Type:       addons.TypeInquiry,
		Config:     json.RawMessage(inquiryCfg),
		Method:     addons.PurchaseCoupon,
		CouponCode: &code,
	})
	require.NoError(t, err)

	row, err := m.Toggle(ctx, siteID, addons.TypeInquiry)
	require.NoError(t, err)
	assert.False(t, row.IsActive)
	assert.True(t, row.IsPurchased)
	assert.Equal(t, addons.PurchaseCoupon, row.PurchaseType)
	require.NotNil(t, row.CouponCode)
	assert.Equal(t, code, *row.CouponCode)

	row, err = m.Toggle(ctx, siteID, addons.TypeInquiry)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
}

func TestToggleMissing(t *testing.T) {
	m, siteID := setup(t, false)
	_, err := m.Toggle(context.Background(), siteID, addons.TypeQnA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleRejectsDomain(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, &addons.SiteAddon{
		SiteID:       siteID,
		AddonType:    addons.TypeDomain,
		PurchaseType: addons.PurchaseNone,
		Config:       json.RawMessage(`{"domain":"shop.example.com","status":"pending_payment"}`),
	}, "is_active", "config"))

	_, err := m.Toggle(ctx, siteID, addons.TypeDomain)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	row, err := m.Get(ctx, siteID, addons.TypeDomain)
	require.NoError(t, err)
	assert.False(t, row.IsActive)

	listing, err := m.List(ctx, siteID)
	require.NoError(t, err)
	assert.False(t, listing.IsActive(addons.TypeDomain))
}

func TestToggleOnAfterUpgradeNeedsPurchase(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	_, err := m.Install(ctx, siteID, addons.TypeQnA, nil)
	require.NoError(t, err)
	_, err = m.Toggle(ctx, siteID, addons.TypeQnA)
	require.NoError(t, err)

	require.NoError(t, m.db.Table("sites").Where("id = ?", siteID).Update("is_paid", true).Error)

	_, err = m.Toggle(ctx, siteID, addons.TypeQnA)
	assert.ErrorIs(t, err, apperr.ErrPurchaseRequired)
	row, err := m.Get(ctx, siteID, addons.TypeQnA)
	require.NoError(t, err)
	assert.False(t, row.IsActive)

	// an add-on left on from the trial can still be switched off
	require.NoError(t, m.db.Model(&addons.SiteAddon{}).
		Where("site_id = ? AND addon_type = ?", siteID, addons.TypeQnA).
		Update("is_active", true).Error)
	row, err = m.Toggle(ctx, siteID, addons.TypeQnA)
	require.NoError(t, err)
	assert.False(t, row.IsActive)
}

func TestInstallKeepsPurchase(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	_, err := m.RecordPurchase(ctx, PurchaseRecord{SiteID: siteID, Type: addons.TypeQnA, Method: addons.PurchaseCard})
	require.NoError(t, err)

	row, err := m.Install(ctx, siteID, addons.TypeQnA, json.RawMessage(`{"moderated":true}`))
	require.NoError(t, err)
	assert.True(t, row.IsPurchased)
	assert.Equal(t, addons.PurchaseCard, row.PurchaseType)
	assert.JSONEq(t, `{"allow_anonymous":false,"moderated":true}`, string(row.Config))
}

func TestPaidSiteRequiresPurchase(t *testing.T) {
	m, siteID := setup(t, true)
	ctx := context.Background()

	_, err := m.Install(ctx, siteID, addons.TypeQnA, nil)
	assert.ErrorIs(t, err, apperr.ErrPurchaseRequired)

	_, err = m.RecordPurchase(ctx, PurchaseRecord{SiteID: siteID, Type: addons.TypeQnA, Method: addons.PurchaseCard})
	require.NoError(t, err)
	_, err = m.Toggle(ctx, siteID, addons.TypeQnA)
	require.NoError(t, err)

	row, err := m.Install(ctx, siteID, addons.TypeQnA, nil)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
}

func TestUpdateConfigIsolatedPerType(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	_, err := m.Install(ctx, siteID, addons.TypeInquiry, json.RawMessage(inquiryCfg))
	require.NoError(t, err)
	_, err = m.Install(ctx, siteID, addons.TypeQnA, nil)
	require.NoError(t, err)

	_, err = m.UpdateConfig(ctx, siteID, addons.TypeInquiry, json.RawMessage(`{"notification_email":"new@example.com"}`))
	require.NoError(t, err)

	qna, err := m.Get(ctx, siteID, addons.TypeQnA)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow_anonymous":false,"moderated":false}`, string(qna.Config))

	_, err = m.UpdateConfig(ctx, siteID, addons.TypeInquiry, json.RawMessage(`{"notification_email":""}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestList(t *testing.T) {
	m, siteID := setup(t, false)
	ctx := context.Background()

	_, err := m.Install(ctx, siteID, addons.TypeQnA, nil)
	require.NoError(t, err)
	_, err = m.RecordPurchase(ctx, PurchaseRecord{SiteID: siteID, Type: addons.TypeInquiry, Config: json.RawMessage(inquiryCfg), Method: addons.PurchaseCard})
	require.NoError(t, err)
	_, err = m.Toggle(ctx, siteID, addons.TypeInquiry)
	require.NoError(t, err)

	l, err := m.List(ctx, siteID)
	require.NoError(t, err)
	assert.Equal(t, []addons.Type{addons.TypeQnA}, l.Active)
	assert.Contains(t, l.Purchased, addons.TypeInquiry)
	assert.NotContains(t, l.Purchased, addons.TypeQnA)
	assert.True(t, l.IsActive(addons.TypeQnA))
}
