package users

import (
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/domain/users"
	"microsite-app/internal/services/domains"
)

func BuildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Email: u.Email,
		Name:  stringPtrIfNotEmpty(u.Name),
		Role:  u.Role,
	}
}

func BuildSiteAccessDTO(appURL string, st site.Site, snap lifecycle.Snapshot, domain *domains.Request) SiteAccessDTO {
	dto := SiteAccessDTO{
		ID:        st.ID,
		Name:      st.Name,
		Status:    string(st.Status),
		State:     string(snap.State),
		Blocked:   snap.Blocked,
		Remaining: snap.Display,
		ExpiresAt: st.ExpiresAt,
	}
	if st.Slug != nil {
		dto.PlatformURL = site.BuildPublicURL(appURL, *st.Slug)
	}
	if domain != nil && domain.Status == addons.DomainActive {
		dto.CustomDomain = &domain.Domain
	}
	return dto
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
