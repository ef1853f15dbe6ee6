package inquiries

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/inquiries"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/infra/mailer"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type Input struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

type Service struct {
	db     *gorm.DB
	mail   mailer.Sender
	policy *bluemonday.Policy
	now    func() time.Time
	log    *slog.Logger
}

func NewService(db *gorm.DB, mail mailer.Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		mail:   mail,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
		log:    logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit stores a visitor inquiry for a public site and then notifies the
// owner. The record is kept even if the email cannot be sent.
func (s *Service) Submit(ctx context.Context, slug string, in Input) (*inquiries.Inquiry, error) {
	in.Name = s.clean(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = s.clean(in.Phone)
	in.Message = s.clean(in.Message)
	if in.Name == "" || in.Message == "" {
		return nil, apperr.Validation("name and message are required")
	}
	if !addons.ValidEmail(in.Email) {
		return nil, apperr.Validation("invalid email %q", in.Email)
	}

	st, cfg, err := s.target(ctx, slug)
	if err != nil {
		return nil, err
	}

	rec := inquiries.Inquiry{
		SiteID:  st.ID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Message: in.Message,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, apperr.Store("save inquiry", err)
	}

	id, err := s.mail.Send(ctx, cfg.NotificationEmail, subject(st, cfg), body(st, rec))
	if err != nil {
		s.log.Warn("⚠️ Inquiry saved but notification failed", "site_id", st.ID, "inquiry_id", rec.ID, "err", err)
		return &rec, nil
	}
	if err := s.db.WithContext(ctx).Model(&rec).Update("notified_message_id", id).Error; err != nil {
		s.log.Warn("⚠️ Could not record notification id", "inquiry_id", rec.ID, "err", err)
	}
	rec.NotifiedMessageID = &id
	return &rec, nil
}

// target resolves the site and its inquiry config. The add-on must be active
// and the site publicly reachable.
func (s *Service) target(ctx context.Context, slug string) (*site.Site, *addons.InquiryConfig, error) {
	var st site.Site
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !site.Visible(st.Status)) {
		return nil, nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, nil, apperr.Store("load site", err)
	}
	if lifecycle.Evaluate(s.now(), st.ExpiresAt, st.IsPaid).Blocked {
		return nil, nil, fmt.Errorf("%w: site is not available", apperr.ErrForbidden)
	}

	var row addons.SiteAddon
	err = s.db.WithContext(ctx).
		Where("site_id = ? AND addon_type = ? AND is_active = ?", st.ID, addons.TypeInquiry, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("inquiry form")
	}
	if err != nil {
		return nil, nil, apperr.Store("load inquiry add-on", err)
	}

	parsed, _, err := addons.DecodeConfig(addons.TypeInquiry, row.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: inquiry form is not configured", apperr.ErrUnavailable)
	}
	return &st, parsed.(*addons.InquiryConfig), nil
}

// List returns a site's inquiries, newest first.
func (s *Service) List(ctx context.Context, siteID string) ([]inquiries.Inquiry, error) {
	var list []inquiries.Inquiry
	if err := s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Store("list inquiries", err)
	}
	return list, nil
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func subject(st *site.Site, cfg *addons.InquiryConfig) string {
	title := cfg.Title
	if title == "" {
		title = "New inquiry"
	}
	return fmt.Sprintf("[%s] %s", st.Name, title)
}

func body(st *site.Site, rec inquiries.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New inquiry for %s</h2>", html.EscapeString(st.Name))
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", rec.Name)
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", html.EscapeString(rec.Email))
	if rec.Phone != "" {
		fmt.Fprintf(&b, "<p><strong>Phone:</strong> %s</p>", rec.Phone)
	}
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(rec.Message, "\n", "<br>"))
	return b.String()
}
