package siteapi

import (
	"encoding/json"
	"time"

	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"
)

type ContentInput struct {
	Name        string          `json:"name" binding:"required"`
	Slug        *string         `json:"slug"`
	Slogan      string          `json:"slogan"`
	Description string          `json:"description"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	ThemeColor  string          `json:"theme_color"`
	HeroImage   string          `json:"hero_image"`
	Instagram   string          `json:"instagram"`
	Blog        string          `json:"blog"`
	Reviews     json.RawMessage `json:"reviews"`
	Portfolio   json.RawMessage `json:"portfolio"`
}

func (in ContentInput) content() site.Content {
	return site.Content{
		Name:        in.Name,
		Slogan:      in.Slogan,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
		ThemeColor:  in.ThemeColor,
		HeroImage:   in.HeroImage,
		Instagram:   in.Instagram,
		Blog:        in.Blog,
		Reviews:     in.Reviews,
		Portfolio:   in.Portfolio,
	}
}

type StatusInput struct {
	Status site.Status `json:"status" binding:"required"`
}

// SiteDTO is a site as its owner sees it.
type SiteDTO struct {
	site.Site
	PublicURL string             `json:"public_url,omitempty"`
	Lifecycle lifecycle.Snapshot `json:"lifecycle"`
}

type SiteSummaryDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Slug      *string            `json:"slug,omitempty"`
	Status    site.Status        `json:"status"`
	ExpiresAt time.Time          `json:"expires_at"`
	Lifecycle lifecycle.Snapshot `json:"lifecycle"`
}
