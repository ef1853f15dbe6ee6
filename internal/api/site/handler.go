package siteapi

import (
	"fmt"
	"net/http"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/media"
	"microsite-app/internal/infra/blob"
	"microsite-app/internal/services/inquiries"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sites     *sites.Service
	inquiries *inquiries.Service
	uploader  blob.Uploader
	appURL    string
}

// NewHandler builds the site handlers. uploader may be nil when no blob
// store is configured.
func NewHandler(s *sites.Service, inq *inquiries.Service, uploader blob.Uploader, appURL string) *Handler {
	return &Handler{sites: s, inquiries: inq, uploader: uploader, appURL: appURL}
}

// GET /sites
func (h *Handler) List(c *gin.Context) {
	list, err := h.sites.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	out := make([]SiteSummaryDTO, 0, len(list))
	for _, st := range list {
		out = append(out, h.toSummary(st))
	}
	c.JSON(http.StatusOK, out)
}

// POST /sites
func (h *Handler) Create(c *gin.Context) {
	var in ContentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	slug := ""
	if in.Slug != nil {
		slug = *in.Slug
	}
	st, err := h.sites.Create(c.Request.Context(), middleware.UserID(c), in.content(), slug)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toDTO(*st))
}

// GET /sites/:id
func (h *Handler) Get(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.toDTO(*st))
}

// PUT /sites/:id
func (h *Handler) Update(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	var in ContentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	if err := h.sites.UpdateContent(c.Request.Context(), st, in.content(), in.Slug); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toDTO(*st))
}

// DELETE /sites/:id
func (h *Handler) Delete(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	if err := h.sites.Delete(c.Request.Context(), st); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /sites/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	var in StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	if err := h.sites.SetStatus(c.Request.Context(), st, in.Status); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toDTO(*st))
}

// GET /sites/:id/lifecycle
func (h *Handler) Lifecycle(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.sites.Lifecycle(*st))
}

// POST /sites/:id/images (multipart: file, slot)
func (h *Handler) UploadImage(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	if h.uploader == nil {
		respond.Error(c, fmt.Errorf("%w: image uploads are not configured", apperr.ErrUnavailable))
		return
	}

	slot := media.Slot(c.DefaultPostForm("slot", string(media.SlotHero)))
	if !slot.Valid() {
		respond.BadRequest(c, "slot must be hero, portfolio or review")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respond.BadRequest(c, "file is required")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if err := media.CheckImage(contentType, fh.Size); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.BadRequest(c, "could not read upload")
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), media.Prefix(st.ID, slot), fh.Filename, contentType, f, fh.Size)
	if err != nil {
		respond.Error(c, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err))
		return
	}
	if slot == media.SlotHero {
		if err := h.sites.SetHeroImage(c.Request.Context(), st, url); err != nil {
			respond.Error(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "slot": slot})
}

// GET /sites/:id/inquiries
func (h *Handler) Inquiries(c *gin.Context) {
	st, ok := OwnedSite(c, h.sites)
	if !ok {
		return
	}
	list, err := h.inquiries.List(c.Request.Context(), st.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /public/sites/:slug
func (h *Handler) Public(c *gin.Context) {
	pub, err := h.sites.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if pub.Paywall {
		c.JSON(http.StatusPaymentRequired, pub)
		return
	}
	c.JSON(http.StatusOK, pub)
}

// POST /public/sites/:slug/inquiries
func (h *Handler) SubmitInquiry(c *gin.Context) {
	var in inquiries.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	rec, err := h.inquiries.Submit(c.Request.Context(), c.Param("slug"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rec.ID, "message": "Inquiry received"})
}
