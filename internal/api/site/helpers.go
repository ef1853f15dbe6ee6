package siteapi

import (
	"microsite-app/internal/api/respond"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

// OwnedSite loads :id and checks the caller may edit it. On failure the
// response is already written and ok is false.
func OwnedSite(c *gin.Context, svc *sites.Service) (*site.Site, bool) {
	st, err := svc.GetOwned(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		respond.Error(c, err)
		return nil, false
	}
	return st, true
}

func (h *Handler) toDTO(st site.Site) SiteDTO {
	dto := SiteDTO{Site: st, Lifecycle: h.sites.Lifecycle(st)}
	if st.Slug != nil {
		dto.PublicURL = site.BuildPublicURL(h.appURL, *st.Slug)
	}
	return dto
}

func (h *Handler) toSummary(st site.Site) SiteSummaryDTO {
	return SiteSummaryDTO{
		ID:        st.ID,
		Name:      st.Name,
		Slug:      st.Slug,
		Status:    st.Status,
		ExpiresAt: st.ExpiresAt,
		Lifecycle: h.sites.Lifecycle(st),
	}
}
