package billing

import (
	"context"
	"net/http"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/domain/coupons"
	couponsvc "microsite-app/internal/services/coupons"

	"github.com/gin-gonic/gin"
)

// CouponService is the part of the coupon validator the handlers need.
type CouponService interface {
	Validate(ctx context.Context, code string, scope coupons.Scope) (*couponsvc.Result, error)
}

// GET /payments
func (h *Handler) History(c *gin.Context) {
	list, err := h.payments.History(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /coupons/validate
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var body struct {
		Code  string        `json:"code" binding:"required"`
		Scope coupons.Scope `json:"scope" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "code and scope are required")
		return
	}
	if body.Scope != coupons.ScopeAddon && body.Scope != coupons.ScopeSubscription {
		respond.BadRequest(c, "scope must be addon or subscription")
		return
	}
	res, err := h.coupons.Validate(c.Request.Context(), body.Code, body.Scope)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
