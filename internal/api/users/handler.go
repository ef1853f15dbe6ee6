package users

import (
	"errors"
	"net/http"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/apperr"
	"microsite-app/internal/services/accounts"
	"microsite-app/internal/services/domains"
	"microsite-app/internal/services/sites"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	accounts *accounts.Service
	sites    *sites.Service
	domains  *domains.Workflow
	appURL   string
}

func NewHandler(a *accounts.Service, s *sites.Service, d *domains.Workflow, appURL string) *Handler {
	return &Handler{accounts: a, sites: s, domains: d, appURL: appURL}
}

// GET /me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.accounts.Get(ctx, middleware.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}

	list, err := h.sites.ListByUser(ctx, user.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	resp := MeResponse{User: BuildUserDTO(*user), Sites: make([]SiteAccessDTO, 0, len(list))}
	for _, st := range list {
		domain, err := h.domains.Get(ctx, st.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			respond.Error(c, err)
			return
		}
		resp.Sites = append(resp.Sites, BuildSiteAccessDTO(h.appURL, st, h.sites.Lifecycle(st), domain))
	}

	c.JSON(http.StatusOK, resp)
}
