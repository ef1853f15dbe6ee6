package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"microsite-app/internal/domain/billing"
	"microsite-app/internal/infra/stripe"
	"microsite-app/internal/services/payments"

	"github.com/gin-gonic/gin"
	stripego "github.com/stripe/stripe-go/v75"
)

// Completer applies a payment that Stripe has confirmed.
type Completer interface {
	CompleteVerified(ctx context.Context, userID uint, siteID, ref string, amount int64, method billing.Method) (*payments.Outcome, error)
}

type Handler struct {
	client    *stripe.Client
	completer Completer
}

// NewHandler accepts a nil client when Stripe is not configured.
func NewHandler(client *stripe.Client, completer Completer) *Handler {
	return &Handler{client: client, completer: completer}
}

func (h *Handler) Webhook(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe is not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := h.client.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.Warn("❌ Stripe signature verification failed", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var session stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		status, err := h.handleCheckoutSessionCompleted(c.Request.Context(), &session)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	default:
		// acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
