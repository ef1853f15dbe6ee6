package site

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused:
		return true
	}
	return false
}

type Site struct {
	ID     string  `gorm:"type:uuid;primaryKey" json:"id"`
	Slug   *string `gorm:"uniqueIndex:idx_sites_slug" json:"slug,omitempty"`
	UserID uint    `gorm:"not null;index" json:"user_id"`
	Status Status  `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`

	IsPaid         bool      `gorm:"not null;default:false" json:"is_paid"`
	ExpiresAt      time.Time `gorm:"not null" json:"expires_at"`
	LastPaymentRef *string   `gorm:"column:last_payment_ref" json:"-"`

	Content

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content is the user-editable part of a site. Image fields hold whatever
// reference the client sends (URL, data URI) and are not validated.
type Content struct {
	Name        string          `gorm:"not null" json:"name"`
	Slogan      string          `json:"slogan"`
	Description string          `json:"description"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	ThemeColor  string          `json:"theme_color"`
	HeroImage   string          `json:"hero_image"`
	Instagram   string          `json:"instagram"`
	Blog        string          `json:"blog"`
	Reviews     json.RawMessage `gorm:"type:jsonb;not null;default:'[]'" json:"reviews"`
	Portfolio   json.RawMessage `gorm:"type:jsonb;not null;default:'[]'" json:"portfolio"`
}

func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if len(s.Reviews) == 0 {
		s.Reviews = json.RawMessage("[]")
	}
	if len(s.Portfolio) == 0 {
		s.Portfolio = json.RawMessage("[]")
	}
	return nil
}

func (s Site) OwnedBy(userID uint) bool { return s.UserID == userID }
