package addons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/site"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseInfo struct {
	Method     addons.PurchaseType `json:"method"`
	CouponCode *string             `json:"coupon_code,omitempty"`
}

// Listing is the entitlement view of one site.
type Listing struct {
	Active    []addons.Type                `json:"active"`
	Purchased map[addons.Type]PurchaseInfo `json:"purchased"`
	Items     []addons.SiteAddon           `json:"items"`
}

func (l Listing) IsActive(t addons.Type) bool {
	for _, a := range l.Active {
		if a == t {
			return true
		}
	}
	return false
}

type Manager struct {
	db  *gorm.DB
	now func() time.Time
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db, now: time.Now}
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) List(ctx context.Context, siteID string) (*Listing, error) {
	var rows []addons.SiteAddon
	if err := m.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("addon_type").
		Find(&rows).Error; err != nil {
		return nil, apperr.Store("list add-ons", err)
	}

	out := &Listing{
		Active:    []addons.Type{},
		Purchased: map[addons.Type]PurchaseInfo{},
		Items:     rows,
	}
	for _, r := range rows {
		if r.IsActive {
			out.Active = append(out.Active, r.AddonType)
		}
		if r.IsPurchased {
			out.Purchased[r.AddonType] = PurchaseInfo{Method: r.PurchaseType, CouponCode: r.CouponCode}
		}
	}
	return out, nil
}

func (m *Manager) Get(ctx context.Context, siteID string, t addons.Type) (*addons.SiteAddon, error) {
	var row addons.SiteAddon
	err := m.db.WithContext(ctx).Where("site_id = ? AND addon_type = ?", siteID, t).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("add-on %s", t))
	}
	if err != nil {
		return nil, apperr.Store("load add-on", err)
	}
	return &row, nil
}

// Install activates an add-on. Trial sites may try any add-on for free; paid
// sites must have purchased it. Purchase state is never touched here.
func (m *Manager) Install(ctx context.Context, siteID string, t addons.Type, raw json.RawMessage) (*addons.SiteAddon, error) {
	canonical, err := m.userConfig(t, raw)
	if err != nil {
		return nil, err
	}

	var s site.Site
	err = m.db.WithContext(ctx).Select("id", "is_paid").Where("id = ?", siteID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("site")
	}
	if err != nil {
		return nil, apperr.Store("load site", err)
	}

	if s.IsPaid {
		existing, err := m.Get(ctx, siteID, t)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		if existing == nil || !existing.IsPurchased {
			return nil, fmt.Errorf("%w: %s", apperr.ErrPurchaseRequired, t)
		}
	}

	row := addons.SiteAddon{
		SiteID:       siteID,
		AddonType:    t,
		IsActive:     true,
		PurchaseType: addons.PurchaseNone,
		Config:       canonical,
	}
	if err := m.Upsert(ctx, &row, "is_active", "config"); err != nil {
		return nil, err
	}
	return m.Get(ctx, siteID, t)
}

// Toggle flips is_active in a single statement. Switching off is always
// allowed; switching on needs the same entitlement as Install, so a paid site
// cannot turn on an add-on it never bought.
func (m *Manager) Toggle(ctx context.Context, siteID string, t addons.Type) (*addons.SiteAddon, error) {
	if !t.Valid() {
		return nil, apperr.Validation("unknown add-on type %q", t)
	}
	if t == addons.TypeDomain {
		return nil, apperr.Validation("the domain add-on is managed through domain requests")
	}
	res := m.db.WithContext(ctx).
		Model(&addons.SiteAddon{}).
		Where("site_id = ? AND addon_type = ?", siteID, t).
		Where("is_active OR is_purchased OR NOT EXISTS (SELECT 1 FROM sites WHERE sites.id = site_addons.site_id AND sites.is_paid)").
		UpdateColumns(map[string]interface{}{
			"is_active":  gorm.Expr("NOT is_active"),
			"updated_at": m.now(),
		})
	if res.Error != nil {
		return nil, apperr.Store("toggle add-on", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := m.Get(ctx, siteID, t); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrPurchaseRequired, t)
	}
	return m.Get(ctx, siteID, t)
}

// UpdateConfig replaces the config of one installed add-on.
func (m *Manager) UpdateConfig(ctx context.Context, siteID string, t addons.Type, raw json.RawMessage) (*addons.SiteAddon, error) {
	canonical, err := m.userConfig(t, raw)
	if err != nil {
		return nil, err
	}
	res := m.db.WithContext(ctx).
		Model(&addons.SiteAddon{}).
		Where("site_id = ? AND addon_type = ?", siteID, t).
		UpdateColumns(map[string]interface{}{
			"config":     canonical,
			"updated_at": m.now(),
		})
	if res.Error != nil {
		return nil, apperr.Store("update add-on config", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("add-on %s", t))
	}
	return m.Get(ctx, siteID, t)
}

type PurchaseRecord struct {
	SiteID     string
	Type       addons.Type
	Config     json.RawMessage
	Method     addons.PurchaseType
	CouponCode *string
}

// RecordPurchase marks an add-on as bought and active.
func (m *Manager) RecordPurchase(ctx context.Context, in PurchaseRecord) (*addons.SiteAddon, error) {
	if in.Method != addons.PurchaseCard && in.Method != addons.PurchaseCoupon && in.Method != addons.PurchaseManual {
		return nil, apperr.Validation("purchase method must be card, coupon or manual")
	}
	canonical, err := m.PurchaseConfig(ctx, in.SiteID, in.Type, in.Config)
	if err != nil {
		return nil, err
	}

	now := m.now()
	row := addons.SiteAddon{
		SiteID:       in.SiteID,
		AddonType:    in.Type,
		IsActive:     true,
		IsPurchased:  true,
		PurchaseType: in.Method,
		CouponCode:   in.CouponCode,
		Config:       canonical,
		PurchasedAt:  &now,
	}
	if err := m.Upsert(ctx, &row, "is_active", "is_purchased", "purchase_type", "coupon_code", "config", "purchased_at"); err != nil {
		return nil, err
	}
	return m.Get(ctx, in.SiteID, in.Type)
}

// PurchaseConfig returns the validated config a purchase will store. An empty
// body keeps the config of an add-on installed during the trial.
func (m *Manager) PurchaseConfig(ctx context.Context, siteID string, t addons.Type, raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		if existing, err := m.Get(ctx, siteID, t); err == nil {
			raw = existing.Config
		}
	}
	return m.userConfig(t, raw)
}

// Upsert inserts the row or, on (site_id, addon_type) conflict, overwrites
// only the listed columns plus updated_at.
func (m *Manager) Upsert(ctx context.Context, row *addons.SiteAddon, columns ...string) error {
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_id"}, {Name: "addon_type"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(row).Error
	return apperr.Store("upsert add-on", err)
}

// userConfig validates config for add-ons a user may edit directly. The domain
// add-on is driven by the domain workflow only.
func (m *Manager) userConfig(t addons.Type, raw json.RawMessage) (json.RawMessage, error) {
	if !t.Valid() {
		return nil, apperr.Validation("unknown add-on type %q", t)
	}
	if t == addons.TypeDomain {
		return nil, apperr.Validation("the domain add-on is managed through domain requests")
	}
	_, canonical, err := addons.DecodeConfig(t, raw)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return canonical, nil
}
