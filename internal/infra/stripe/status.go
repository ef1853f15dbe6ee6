package stripe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	stripego "github.com/stripe/stripe-go/v75"
)

// SessionPaid reports whether a completed checkout session actually captured
// money. Async methods complete the session before payment settles.
func SessionPaid(s *stripego.CheckoutSession) bool {
	if s == nil {
		return false
	}
	switch strings.TrimSpace(string(s.PaymentStatus)) {
	case string(stripego.CheckoutSessionPaymentStatusPaid), string(stripego.CheckoutSessionPaymentStatusNoPaymentRequired):
		return true
	default:
		return false
	}
}

// SessionOwner reads user_id and site_id from session metadata, falling back
// to ClientReferenceID for the site.
func SessionOwner(s *stripego.CheckoutSession) (uint, string, error) {
	if s == nil {
		return 0, "", errors.New("nil session")
	}
	raw := s.Metadata["user_id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, "", fmt.Errorf("invalid user_id %q", raw)
	}
	siteID := s.Metadata["site_id"]
	if siteID == "" {
		siteID = s.ClientReferenceID
	}
	if siteID == "" {
		return 0, "", errors.New("missing site_id")
	}
	return uint(id), siteID, nil
}
