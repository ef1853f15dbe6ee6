package sites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/lifecycle"
	"microsite-app/internal/domain/site"

	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	trialWindow time.Duration
	now         func() time.Time
}

func NewService(db *gorm.DB, trialWindow time.Duration) *Service {
	return &Service{db: db, trialWindow: trialWindow, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create starts a new draft site in its trial window.
func (s *Service) Create(ctx context.Context, userID uint, content site.Content, slug string) (*site.Site, error) {
	if strings.TrimSpace(content.Name) == "" {
		return nil, apperr.Validation("site name is required")
	}
	st := site.NewTrialSite(userID, content, s.now(), s.trialWindow)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&st).Error; err != nil {
			return apperr.Store("create site", err)
		}
		chosen, err := s.pickSlug(tx, st, slug)
		if err != nil {
			return err
		}
		st.Slug = &chosen
		return apperr.Store("set slug", tx.Model(&site.Site{}).Where("id = ?", st.ID).Update("slug", chosen).Error)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) pickSlug(tx *gorm.DB, st site.Site, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return site.UniqueSlug(st.Name, st.ID), nil
	}
	if !site.ValidSlug(requested) {
		return "", apperr.Validation("slug may only contain lowercase letters, digits and dashes")
	}
	var taken int64
	if err := tx.Model(&site.Site{}).Where("slug = ? AND id <> ?", requested, st.ID).Count(&taken).Error; err != nil {
		return "", apperr.Store("check slug", err)
	}
	if taken > 0 {
		return "", fmt.Errorf("%w: slug %s is taken", apperr.ErrConflict, requested)
	}
	return requested, nil
}

// GetOwned loads a site and checks the caller owns it. Admins may load any.
func (s *Service) GetOwned(ctx context.Context, id string, userID uint, isAdmin bool) (*site.Site, error) {
	var st site.Site
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, apperr.Store("load site", err)
	}
	if !isAdmin && !st.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: site belongs to another user", apperr.ErrForbidden)
	}
	return &st, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]site.Site, error) {
	var list []site.Site
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Store("list sites", err)
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]site.Site, error) {
	var list []site.Site
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Store("list sites", err)
	}
	return list, nil
}

// UpdateContent replaces the editable content and, when given, the slug.
// Lifecycle columns are never written here.
func (s *Service) UpdateContent(ctx context.Context, st *site.Site, content site.Content, slug *string) error {
	if strings.TrimSpace(content.Name) == "" {
		return apperr.Validation("site name is required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":        content.Name,
			"slogan":      content.Slogan,
			"description": content.Description,
			"phone":       content.Phone,
			"email":       content.Email,
			"address":     content.Address,
			"theme_color": content.ThemeColor,
			"hero_image":  content.HeroImage,
			"instagram":   content.Instagram,
			"blog":        content.Blog,
		}
		if len(content.Reviews) > 0 {
			updates["reviews"] = content.Reviews
		}
		if len(content.Portfolio) > 0 {
			updates["portfolio"] = content.Portfolio
		}
		if slug != nil {
			chosen, err := s.pickSlug(tx, *st, *slug)
			if err != nil {
				return err
			}
			updates["slug"] = chosen
		}
		if err := tx.Model(&site.Site{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
			return apperr.Store("update site", err)
		}
		return apperr.Store("reload site", tx.Where("id = ?", st.ID).First(st).Error)
	})
}

func (s *Service) SetStatus(ctx context.Context, st *site.Site, status site.Status) error {
	if !status.Valid() {
		return apperr.Validation("status must be draft, active or paused")
	}
	if err := s.db.WithContext(ctx).Model(&site.Site{}).Where("id = ?", st.ID).Update("status", status).Error; err != nil {
		return apperr.Store("set status", err)
	}
	st.Status = status
	return nil
}

// Delete removes a site with its add-ons. Ledger rows are kept.
func (s *Service) Delete(ctx context.Context, st *site.Site) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_id = ?", st.ID).Delete(&addons.SiteAddon{}).Error; err != nil {
			return apperr.Store("delete add-ons", err)
		}
		return apperr.Store("delete site", tx.Delete(&site.Site{}, "id = ?", st.ID).Error)
	})
}

func (s *Service) Lifecycle(st site.Site) lifecycle.Snapshot {
	return lifecycle.Evaluate(s.now(), st.ExpiresAt, st.IsPaid)
}

// Public is what a visitor gets for a slug. Blocked sites carry no content.
type Public struct {
	Site      *site.Site         `json:"site,omitempty"`
	Addons    []addons.Type      `json:"addons,omitempty"`
	Lifecycle lifecycle.Snapshot `json:"lifecycle"`
	Paywall   bool               `json:"paywall"`
}

// GetPublic resolves a slug for anonymous visitors. The lifecycle is
// recomputed on every call.
func (s *Service) GetPublic(ctx context.Context, slug string) (*Public, error) {
	var st site.Site
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, apperr.Store("load site", err)
	}
	if !site.Visible(st.Status) {
		return nil, apperr.NotFound("site")
	}

	snap := s.Lifecycle(st)
	if snap.Blocked {
		return &Public{Lifecycle: snap, Paywall: true}, nil
	}

	var active []addons.SiteAddon
	if err := s.db.WithContext(ctx).
		Select("addon_type").
		Where("site_id = ? AND is_active = ?", st.ID, true).
		Find(&active).Error; err != nil {
		return nil, apperr.Store("load add-ons", err)
	}
	types := make([]addons.Type, 0, len(active))
	for _, a := range active {
		types = append(types, a.AddonType)
	}
	return &Public{Site: &st, Addons: types, Lifecycle: snap}, nil
}

// SetHeroImage stores an uploaded image URL on the site.
func (s *Service) SetHeroImage(ctx context.Context, st *site.Site, url string) error {
	if err := s.db.WithContext(ctx).Model(&site.Site{}).Where("id = ?", st.ID).Update("hero_image", url).Error; err != nil {
		return apperr.Store("set hero image", err)
	}
	st.HeroImage = url
	return nil
}
