package stripe

import (
	"testing"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPaid(t *testing.T) {
	assert.False(t, SessionPaid(nil))
	assert.True(t, SessionPaid(&stripego.CheckoutSession{PaymentStatus: stripego.CheckoutSessionPaymentStatusPaid}))
	assert.False(t, SessionPaid(&stripego.CheckoutSession{PaymentStatus: stripego.CheckoutSessionPaymentStatusUnpaid}))
}

func TestConstructEventWithoutSecret(t *testing.T) {
	c := &Client{}
	_, err := c.ConstructEvent([]byte(`{}`), "sig")
	assert.Error(t, err)
}

func TestSessionOwner(t *testing.T) {
	s := &stripego.CheckoutSession{Metadata: map[string]string{"user_id": "3"}, ClientReferenceID: "site-9"}
	uid, siteID, err := SessionOwner(s)
	require.NoError(t, err)
	assert.Equal(t, uint(3), uid)
	assert.Equal(t, "site-9", siteID)

	s.Metadata = map[string]string{"user_id": "3", "site_id": "site-1"}
	_, siteID, err = SessionOwner(s)
	require.NoError(t, err)
	assert.Equal(t, "site-1", siteID)

	s.Metadata = map[string]string{"user_id": "x"}
	_, _, err = SessionOwner(s)
	assert.Error(t, err)

	_, _, err = SessionOwner(&stripego.CheckoutSession{Metadata: map[string]string{"user_id": "3"}})
	assert.Error(t, err)
}
