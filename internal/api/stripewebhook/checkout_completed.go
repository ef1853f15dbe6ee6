package stripewebhooks

import (
	"context"
	"log/slog"
	"net/http"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/infra/stripe"

	stripego "github.com/stripe/stripe-go/v75"
)

// handleCheckoutSessionCompleted extends the site named in the session
// metadata. It returns the status to answer Stripe with: 2xx stops retries,
// 5xx asks Stripe to retry.
func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, session *stripego.CheckoutSession) (int, error) {
	if !stripe.SessionPaid(session) {
		slog.Info("⏳ Checkout session completed but not paid yet", "session", session.ID)
		return http.StatusOK, nil
	}

	userID, siteID, err := stripe.SessionOwner(session)
	if err != nil {
		slog.Warn("⚠️ Checkout session without usable metadata", "session", session.ID, "err", err)
		return http.StatusOK, nil
	}

	out, err := h.completer.CompleteVerified(ctx, userID, siteID, session.ID, session.AmountTotal, billing.MethodStripe)
	if err != nil {
		status, _ := respond.Status(err)
		slog.Error("❌ Stripe payment not applied", "session", session.ID, "site_id", siteID, "err", err)
		if out != nil || status < http.StatusInternalServerError {
			// permanent, or the site is already extended
			return http.StatusOK, nil
		}
		return http.StatusInternalServerError, err
	}

	slog.Info("✅ Stripe payment applied", "session", session.ID, "site_id", siteID, "already_applied", out.AlreadyApplied, "expires_at", out.ExpiresAt)
	return http.StatusOK, nil
}
