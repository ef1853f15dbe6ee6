package users

import "time"

type MeResponse struct {
	User  UserDTO         `json:"user"`
	Sites []SiteAccessDTO `json:"sites"`
}

type UserDTO struct {
	ID    uint    `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Role  string  `json:"role"`
}

// SiteAccessDTO is what the dashboard needs to render one site card.
type SiteAccessDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	State        string    `json:"state"` // trial-active|trial-expired|paid-active|paid-expiring
	Blocked      bool      `json:"blocked"`
	Remaining    string    `json:"remaining"`
	ExpiresAt    time.Time `json:"expires_at"`
	PlatformURL  string    `json:"platform_url,omitempty"`
	CustomDomain *string   `json:"custom_domain"`
}
