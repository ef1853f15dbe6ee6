package billing

import (
	"net/http"
	"strings"

	"microsite-app/internal/api/respond"
	siteapi "microsite-app/internal/api/site"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/services/payments"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sites    *sites.Service
	payments *payments.Service
	coupons  CouponService
}

func NewHandler(s *sites.Service, p *payments.Service, c CouponService) *Handler {
	return &Handler{sites: s, payments: p, coupons: c}
}

// POST /sites/:id/checkout
func (h *Handler) StartCheckout(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	out, err := h.payments.StartCheckout(c.Request.Context(), middleware.UserID(c), st.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /sites/:id/checkout/coupon
func (h *Handler) StageCoupon(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Missing or invalid code")
		return
	}
	res, err := h.payments.StageCoupon(c.Request.Context(), middleware.UserID(c), st.ID, body.Code)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /payments/complete
//
// Accepts the redirect parameters either as a JSON body or as the query
// string the provider appended to the success URL.
func (h *Handler) Complete(c *gin.Context) {
	var cb payments.Callback
	var err error
	if strings.HasPrefix(c.ContentType(), "application/json") && c.Request.ContentLength != 0 {
		err = c.ShouldBindJSON(&cb)
	} else {
		err = c.ShouldBindQuery(&cb)
	}
	if err != nil {
		respond.BadRequest(c, "Malformed payment callback")
		return
	}

	out, err := h.payments.Complete(c.Request.Context(), middleware.UserID(c), cb)
	if err != nil {
		// the site may already be extended when a later step fails
		var extra gin.H
		if out != nil {
			extra = gin.H{"outcome": out}
		}
		respond.ErrorWith(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, out)
}
