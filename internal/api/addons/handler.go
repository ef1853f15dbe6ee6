package addonsapi

import (
	"encoding/json"
	"net/http"

	"microsite-app/internal/api/respond"
	siteapi "microsite-app/internal/api/site"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/domain/addons"
	addonsvc "microsite-app/internal/services/addons"
	"microsite-app/internal/services/domains"
	"microsite-app/internal/services/payments"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sites    *sites.Service
	addons   *addonsvc.Manager
	payments *payments.Service
	domains  *domains.Workflow
}

func NewHandler(s *sites.Service, a *addonsvc.Manager, p *payments.Service, d *domains.Workflow) *Handler {
	return &Handler{sites: s, addons: a, payments: p, domains: d}
}

type configInput struct {
	Config json.RawMessage `json:"config"`
}

type purchaseInput struct {
	Method     addons.PurchaseType `json:"method" binding:"required"`
	CouponCode string              `json:"coupon_code"`
	Config     json.RawMessage     `json:"config"`
}

type domainInput struct {
	Domain string `json:"domain" binding:"required"`
}

// bindConfig accepts an empty body as "no config".
func bindConfig(c *gin.Context) (json.RawMessage, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	var in configInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return nil, false
	}
	return in.Config, true
}

func addonType(c *gin.Context) (addons.Type, bool) {
	t := addons.Type(c.Param("type"))
	if !t.Valid() {
		respond.BadRequest(c, "unknown add-on type")
		return "", false
	}
	return t, true
}

// GET /sites/:id/addons
func (h *Handler) List(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	listing, err := h.addons.List(c.Request.Context(), st.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// POST /sites/:id/addons/:type/install
func (h *Handler) Install(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	t, ok := addonType(c)
	if !ok {
		return
	}
	cfg, ok := bindConfig(c)
	if !ok {
		return
	}
	row, err := h.addons.Install(c.Request.Context(), st.ID, t, cfg)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// POST /sites/:id/addons/:type/toggle
func (h *Handler) Toggle(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	t, ok := addonType(c)
	if !ok {
		return
	}
	row, err := h.addons.Toggle(c.Request.Context(), st.ID, t)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// PUT /sites/:id/addons/:type/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	t, ok := addonType(c)
	if !ok {
		return
	}
	cfg, ok := bindConfig(c)
	if !ok {
		return
	}
	row, err := h.addons.UpdateConfig(c.Request.Context(), st.ID, t, cfg)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// POST /sites/:id/addons/:type/purchase
func (h *Handler) Purchase(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	t, ok := addonType(c)
	if !ok {
		return
	}
	var in purchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	out, err := h.payments.Purchase(c.Request.Context(), middleware.UserID(c), st.ID, t, payments.PurchaseInput{
		Method:     in.Method,
		CouponCode: in.CouponCode,
		Config:     in.Config,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /domains/check?domain=
func (h *Handler) CheckDomain(c *gin.Context) {
	d, available, err := h.domains.Check(c.Request.Context(), c.Query("domain"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domain": d, "available": available})
}

// GET /sites/:id/domain
func (h *Handler) GetDomain(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	req, err := h.domains.Get(c.Request.Context(), st.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// POST /sites/:id/domain
func (h *Handler) RequestDomain(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	var in domainInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	req, err := h.domains.Request(c.Request.Context(), st.ID, in.Domain)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// DELETE /sites/:id/domain
func (h *Handler) DeleteDomain(c *gin.Context) {
	st, ok := siteapi.OwnedSite(c, h.sites)
	if !ok {
		return
	}
	if err := h.domains.DeleteCancelled(c.Request.Context(), st.ID); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
