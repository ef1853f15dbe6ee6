// Package respond turns service errors into JSON error responses.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"microsite-app/internal/apperr"

	"github.com/gin-gonic/gin"
)

type mapping struct {
	err    error
	status int
	code   string
}

// Order matters: the most specific kinds come first.
var mappings = []mapping{
	{apperr.ErrCouponScope, http.StatusUnprocessableEntity, "coupon_scope"},
	{apperr.ErrCouponExpired, http.StatusUnprocessableEntity, "coupon_expired"},
	{apperr.ErrCouponUsageExceeded, http.StatusUnprocessableEntity, "coupon_usage_exceeded"},
	{apperr.ErrPaymentCallback, http.StatusBadRequest, "payment_callback"},
	{apperr.ErrPurchaseRequired, http.StatusPaymentRequired, "purchase_required"},
	{apperr.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{apperr.ErrValidation, http.StatusBadRequest, "validation"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
	{apperr.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{apperr.ErrRemoteStore, http.StatusInternalServerError, "store"},
}

// Status returns the HTTP status and code for err.
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// Error writes err as {"error", "code"} and, for payment steps, "step".
func Error(c *gin.Context, err error) {
	ErrorWith(c, err, nil)
}

// ErrorWith is Error with extra fields merged into the body.
func ErrorWith(c *gin.Context, err error, extra gin.H) {
	status, code := Status(err)
	body := gin.H{"error": err.Error(), "code": code}
	for k, v := range extra {
		body[k] = v
	}

	var step *apperr.StepError
	if errors.As(err, &step) {
		body["step"] = step.Step
		body["step_name"] = step.Name
	}

	if status >= http.StatusInternalServerError {
		slog.Error("❌ Request failed", "path", c.FullPath(), "err", err)
		if code == "store" || code == "internal" {
			body["error"] = "Internal server error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest is for malformed request bodies that never reached a service.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "validation"})
}
