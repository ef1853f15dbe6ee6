package payments

import (
	"fmt"
	"strconv"
	"strings"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/billing"
)

// Callback carries the parameters the payment provider appends to the
// success redirect. Exactly one shape is accepted: PaymentID alone (hosted
// checkout session) or PaymentKey, OrderID and Amount together.
type Callback struct {
	SiteID     string `json:"site_id" form:"siteId"`
	PaymentID  string `json:"payment_id" form:"paymentId"`
	PaymentKey string `json:"payment_key" form:"paymentKey"`
	OrderID    string `json:"order_id" form:"orderId"`
	Amount     string `json:"amount" form:"amount"`
}

// charge is a callback that passed validation.
type charge struct {
	siteID string
	ref    string
	amount int64 // zero when the provider did not report one
	method billing.Method
}

func (cb Callback) parse() (charge, error) {
	cb.SiteID = strings.TrimSpace(cb.SiteID)
	cb.PaymentID = strings.TrimSpace(cb.PaymentID)
	cb.PaymentKey = strings.TrimSpace(cb.PaymentKey)
	cb.OrderID = strings.TrimSpace(cb.OrderID)
	cb.Amount = strings.TrimSpace(cb.Amount)

	if cb.SiteID == "" {
		return charge{}, fmt.Errorf("%w: missing site id", apperr.ErrPaymentCallback)
	}

	redirectShape := cb.PaymentKey != "" || cb.OrderID != "" || cb.Amount != ""
	switch {
	case cb.PaymentID != "" && redirectShape:
		return charge{}, fmt.Errorf("%w: paymentId cannot be combined with paymentKey/orderId/amount", apperr.ErrPaymentCallback)
	case cb.PaymentID != "":
		return charge{siteID: cb.SiteID, ref: cb.PaymentID, method: billing.MethodStripe}, nil
	case !redirectShape:
		return charge{}, fmt.Errorf("%w: no payment reference", apperr.ErrPaymentCallback)
	case cb.PaymentKey == "" || cb.OrderID == "" || cb.Amount == "":
		return charge{}, fmt.Errorf("%w: paymentKey, orderId and amount are all required", apperr.ErrPaymentCallback)
	}

	amount, err := strconv.ParseInt(cb.Amount, 10, 64)
	if err != nil || amount <= 0 {
		return charge{}, fmt.Errorf("%w: amount must be a positive integer", apperr.ErrPaymentCallback)
	}
	return charge{siteID: cb.SiteID, ref: cb.PaymentKey, amount: amount, method: billing.MethodCard}, nil
}
