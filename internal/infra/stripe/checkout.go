package stripe

import (
	"fmt"
	"net/url"

	stripego "github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/webhook"
)

type Client struct {
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	stripego.Key = secretKey
	return &Client{webhookSecret: webhookSecret}
}

type SessionRequest struct {
	UserID      uint
	SiteID      string
	Amount      int64
	Currency    string
	ProductName string
	// ReturnURL receives paymentId and siteId query parameters on success.
	ReturnURL string
	CancelURL string
}

// NewPaymentSession creates a one-off Checkout Session and returns its
// hosted URL.
func (c *Client) NewPaymentSession(req SessionRequest) (string, error) {
	success := req.ReturnURL + "?paymentId={CHECKOUT_SESSION_ID}&siteId=" + url.QueryEscape(req.SiteID)

	params := &stripego.CheckoutSessionParams{
		SuccessURL: stripego.String(success),
		CancelURL:  stripego.String(req.CancelURL),
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(req.Currency),
					UnitAmount: stripego.Int64(req.Amount),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripego.String(req.ProductName),
					},
				},
				Quantity: stripego.Int64(1),
			},
		},
		ClientReferenceID: stripego.String(req.SiteID),
	}
	params.AddMetadata("user_id", fmt.Sprint(req.UserID))
	params.AddMetadata("site_id", req.SiteID)

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// GetSession fetches a session by id, used when the browser returns with
// paymentId instead of waiting for the webhook.
func (c *Client) GetSession(id string) (*stripego.CheckoutSession, error) {
	s, err := checkoutsession.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session: %w", err)
	}
	return s, nil
}

func (c *Client) ConstructEvent(payload []byte, signature string) (stripego.Event, error) {
	if c.webhookSecret == "" {
		return stripego.Event{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET not configured")
	}
	return webhook.ConstructEventWithOptions(
		payload,
		signature,
		c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}
