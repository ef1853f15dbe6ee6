package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/inquiries"
	"microsite-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sent struct{ to, subject, html string }

type fakeMailer struct {
	sent []sent
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, html string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sent{to, subject, html})
	return "<id-1@example.com>", nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, active bool, expiresAt time.Time) *gorm.DB {
	t.Helper()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "owner@example.com")
	st := testutil.CreateSite(t, db, u.ID, false, expiresAt)
	require.NoError(t, db.Model(&st).Update("slug", "shop").Error)
	require.NoError(t, db.Create(&addons.SiteAddon{
		SiteID:       st.ID,
		AddonType:    addons.TypeInquiry,
		IsActive:     active,
		PurchaseType: addons.PurchaseNone,
		Config:       json.RawMessage(`{"notification_email":"owner@example.com"}`),
	}).Error)
	return db
}

func TestSubmitSendsSanitizedNotification(t *testing.T) {
	db := seed(t, true, now.Add(time.Hour))
	m := &fakeMailer{}
	svc := NewService(db, m, nil).WithClock(testutil.Clock(now))

	rec, err := svc.Submit(context.Background(), "shop", Input{
		Name:    "Kim <script>alert(1)</script>",
		Email:   "kim@example.com",
		Message: "Are you open <b>Sunday</b>?",
	})
	require.NoError(t, err)
	require.NotNil(t, rec.NotifiedMessageID)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "owner@example.com", m.sent[0].to)
	assert.Equal(t, "[Test Shop] New inquiry", m.sent[0].subject)
	assert.NotContains(t, m.sent[0].html, "<script>")
	assert.NotContains(t, m.sent[0].html, "<b>")
	assert.Contains(t, m.sent[0].html, "Sunday")
}

func TestSubmitKeepsRecordWhenMailFails(t *testing.T) {
	db := seed(t, true, now.Add(time.Hour))
	svc := NewService(db, &fakeMailer{err: errors.New("smtp down")}, nil).WithClock(testutil.Clock(now))

	rec, err := svc.Submit(context.Background(), "shop", Input{Name: "Lee", Email: "lee@example.com", Message: "hi"})
	require.NoError(t, err)
	assert.Nil(t, rec.NotifiedMessageID)

	var n int64
	require.NoError(t, db.Model(&inquiries.Inquiry{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSubmitRejected(t *testing.T) {
	ctx := context.Background()
	in := Input{Name: "Lee", Email: "lee@example.com", Message: "hi"}

	t.Run("inactive add-on", func(t *testing.T) {
		svc := NewService(seed(t, false, now.Add(time.Hour)), &fakeMailer{}, nil).WithClock(testutil.Clock(now))
		_, err := svc.Submit(ctx, "shop", in)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("expired trial", func(t *testing.T) {
		svc := NewService(seed(t, true, now), &fakeMailer{}, nil).WithClock(testutil.Clock(now))
		_, err := svc.Submit(ctx, "shop", in)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("bad email", func(t *testing.T) {
		svc := NewService(seed(t, true, now.Add(time.Hour)), &fakeMailer{}, nil).WithClock(testutil.Clock(now))
		_, err := svc.Submit(ctx, "shop", Input{Name: "Lee", Email: "nope", Message: "hi"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown slug", func(t *testing.T) {
		svc := NewService(seed(t, true, now.Add(time.Hour)), &fakeMailer{}, nil).WithClock(testutil.Clock(now))
		_, err := svc.Submit(ctx, "other", in)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
