package payments

import (
	"context"
	"fmt"

	"microsite-app/internal/apperr"
	"microsite-app/internal/infra/stripe"
)

// StripeGateway runs card checkout through Stripe Checkout Sessions.
type StripeGateway struct {
	client   *stripe.Client
	currency string
	appURL   string
}

func NewStripeGateway(client *stripe.Client, currency, appURL string) *StripeGateway {
	return &StripeGateway{client: client, currency: currency, appURL: appURL}
}

func (g *StripeGateway) StartCheckout(_ context.Context, req GatewayRequest) (string, error) {
	return g.client.NewPaymentSession(stripe.SessionRequest{
		UserID:      req.UserID,
		SiteID:      req.SiteID,
		Amount:      req.Amount,
		Currency:    g.currency,
		ProductName: req.ProductName,
		ReturnURL:   g.appURL + "/payments/success",
		CancelURL:   g.appURL + "/payments/cancel?siteId=" + req.SiteID,
	})
}

func (g *StripeGateway) VerifyPayment(_ context.Context, paymentID string) (VerifiedPayment, error) {
	s, err := g.client.GetSession(paymentID)
	if err != nil {
		return VerifiedPayment{}, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	if !stripe.SessionPaid(s) {
		return VerifiedPayment{}, fmt.Errorf("%w: session %s is not paid", apperr.ErrPaymentCallback, paymentID)
	}
	userID, siteID, err := stripe.SessionOwner(s)
	if err != nil {
		return VerifiedPayment{}, fmt.Errorf("%w: session %s: %v", apperr.ErrPaymentCallback, paymentID, err)
	}
	return VerifiedPayment{Amount: s.AmountTotal, UserID: userID, SiteID: siteID}, nil
}
