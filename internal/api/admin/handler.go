package admin

import (
	"net/http"
	"time"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/coupons"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"
	couponsvc "microsite-app/internal/services/coupons"
	"microsite-app/internal/services/domains"
	"microsite-app/internal/services/payments"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

type AdminSite struct {
	ID        string          `json:"id"`
	UserID    uint            `json:"user_id"`
	Name      string          `json:"name"`
	Slug      *string         `json:"slug,omitempty"`
	Status    site.Status     `json:"status"`
	IsPaid    bool            `json:"is_paid"`
	ExpiresAt string          `json:"expires_at"`
	State     lifecycle.State `json:"state"`
	Remaining string          `json:"remaining"`
}

type AdminPayment struct {
	ID          uint    `json:"id"`
	UserID      uint    `json:"user_id"`
	SiteID      string  `json:"site_id"`
	Amount      int64   `json:"amount"`
	Method      string  `json:"method"`
	Purpose     string  `json:"purpose"`
	AddonType   *string `json:"addon_type,omitempty"`
	CouponCode  *string `json:"coupon_code,omitempty"`
	ExternalRef string  `json:"external_ref"`
	CreatedAt   string  `json:"created_at"`
}

type Handler struct {
	sites    *sites.Service
	payments *payments.Service
	coupons  *couponsvc.Validator
	domains  *domains.Workflow
}

func NewHandler(s *sites.Service, p *payments.Service, c *couponsvc.Validator, d *domains.Workflow) *Handler {
	return &Handler{sites: s, payments: p, coupons: c, domains: d}
}

// GET /admin/sites
func (h *Handler) ListAllSites(c *gin.Context) {
	list, err := h.sites.ListAll(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}

	out := make([]AdminSite, 0, len(list))
	for _, st := range list {
		snap := h.sites.Lifecycle(st)
		out = append(out, AdminSite{
			ID:        st.ID,
			UserID:    st.UserID,
			Name:      st.Name,
			Slug:      st.Slug,
			Status:    st.Status,
			IsPaid:    st.IsPaid,
			ExpiresAt: st.ExpiresAt.Format("2006-01-02 15:04"),
			State:     snap.State,
			Remaining: snap.Display,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/payments
func (h *Handler) ListAllPayments(c *gin.Context) {
	list, err := h.payments.ListAll(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}

	out := make([]AdminPayment, 0, len(list))
	for _, p := range list {
		out = append(out, AdminPayment{
			ID:          p.ID,
			UserID:      p.UserID,
			SiteID:      p.SiteID,
			Amount:      p.Amount,
			Method:      string(p.Method),
			Purpose:     string(p.Purpose),
			AddonType:   p.AddonType,
			CouponCode:  p.CouponCode,
			ExternalRef: p.ExternalRef,
			CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/domains?status=
func (h *Handler) ListDomains(c *gin.Context) {
	status := addons.DomainStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respond.BadRequest(c, "unknown domain status")
		return
	}
	list, err := h.domains.List(c.Request.Context(), status)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /admin/sites/:id/domain/transition
func (h *Handler) TransitionDomain(c *gin.Context) {
	var body struct {
		Status addons.DomainStatus `json:"status" binding:"required"`
		Reason string              `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	req, err := h.domains.Transition(c.Request.Context(), c.Param("id"), body.Status, body.Reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GET /admin/coupons
func (h *Handler) ListCoupons(c *gin.Context) {
	list, err := h.coupons.List(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /admin/coupons
func (h *Handler) CreateCoupon(c *gin.Context) {
	var body struct {
		Code        string        `json:"code" binding:"required"`
		Value       int64         `json:"value"`
		Description string        `json:"description"`
		Scope       coupons.Scope `json:"scope" binding:"required"`
		ExpiresAt   *time.Time    `json:"expires_at"`
		MaxUses     *int          `json:"max_uses"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	cp, err := h.coupons.Create(c.Request.Context(), couponsvc.CreateInput{
		Code:        body.Code,
		Value:       body.Value,
		Description: body.Description,
		Scope:       body.Scope,
		ExpiresAt:   body.ExpiresAt,
		MaxUses:     body.MaxUses,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}
