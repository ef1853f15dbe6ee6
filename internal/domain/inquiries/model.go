package inquiries

import "time"

type Inquiry struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	SiteID  string `gorm:"type:uuid;not null;index" json:"site_id"`
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null" json:"email"`
	Phone   string `json:"phone"`
	Message string `gorm:"not null" json:"message"`

	// Set once the owner notification was handed to the mail server.
	NotifiedMessageID *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
