package domains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/addons"
	addonsvc "microsite-app/internal/services/addons"

	"gorm.io/gorm"
)

// Normalize lower-cases a domain and strips a scheme, "www." and trailing dot.
func Normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimSuffix(d, "/")
	return strings.TrimSuffix(d, ".")
}

func ValidFormat(domain string) bool {
	return addons.ValidDomain(domain)
}

// Request is a domain add-on row decoded for callers.
type Request struct {
	SiteID       string              `json:"site_id"`
	Domain       string              `json:"domain"`
	Status       addons.DomainStatus `json:"status"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	IsActive     bool                `json:"is_active"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type Workflow struct {
	db      *gorm.DB
	addons  *addonsvc.Manager
	checker Checker
	log     *slog.Logger
}

func NewWorkflow(db *gorm.DB, addons *addonsvc.Manager, checker Checker, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{db: db, addons: addons, checker: checker, log: logger}
}

// Check validates the format and asks the checker whether the domain is free.
func (w *Workflow) Check(ctx context.Context, domain string) (string, bool, error) {
	d := Normalize(domain)
	if !ValidFormat(d) {
		return d, false, apperr.Validation("%q is not a valid domain", domain)
	}
	ok, err := w.checker.Available(ctx, d)
	if err != nil {
		return d, false, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	return d, ok, nil
}

// Request records a new domain request in pending_payment. A site that has a
// pending or active request cannot request again; a cancelled request must be
// deleted by its owner first.
func (w *Workflow) Request(ctx context.Context, siteID, domain string) (*Request, error) {
	d, available, err := w.Check(ctx, domain)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: %s is already registered", apperr.ErrConflict, d)
	}

	existing, err := w.Get(ctx, siteID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == addons.DomainCancelled {
			return nil, fmt.Errorf("%w: delete the cancelled request for %s first", apperr.ErrConflict, existing.Domain)
		}
		return nil, fmt.Errorf("%w: a request for %s is already %s", apperr.ErrConflict, existing.Domain, existing.Status)
	}

	raw, err := json.Marshal(addons.DomainConfig{Domain: d, Status: addons.DomainPendingPayment})
	if err != nil {
		return nil, err
	}
	_, cfg, err := addons.DecodeConfig(addons.TypeDomain, raw)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	row := addons.SiteAddon{
		SiteID:       siteID,
		AddonType:    addons.TypeDomain,
		IsActive:     false,
		PurchaseType: addons.PurchaseNone,
		Config:       cfg,
	}
	if err := w.addons.Upsert(ctx, &row, "is_active", "config"); err != nil {
		return nil, err
	}
	w.log.Info("🌐 Domain requested", "site_id", siteID, "domain", d)
	return w.Get(ctx, siteID)
}

// Transition moves a request to a new status. Only admins call this. A
// cancellation needs a reason, which the requester will see.
func (w *Workflow) Transition(ctx context.Context, siteID string, to addons.DomainStatus, reason string) (*Request, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown domain status %q", to)
	}
	reason = strings.TrimSpace(reason)
	if to == addons.DomainCancelled && reason == "" {
		return nil, apperr.Validation("a cancellation reason is required")
	}

	row, err := w.addons.Get(ctx, siteID, addons.TypeDomain)
	if err != nil {
		return nil, err
	}
	return w.apply(ctx, row, to, reason)
}

// apply writes the transition only if the row is unchanged since it was read,
// so two admins acting on the same request cannot both succeed.
func (w *Workflow) apply(ctx context.Context, row *addons.SiteAddon, to addons.DomainStatus, reason string) (*Request, error) {
	cfg, err := addons.ParseDomainConfig(row.Config)
	if err != nil {
		return nil, apperr.Store("decode domain config", err)
	}
	if !addons.CanTransition(cfg.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrIllegalTransition, cfg.Status, to)
	}

	from := cfg.Status
	cfg.Status = to
	cfg.CancelReason = ""
	if to == addons.DomainCancelled {
		cfg.CancelReason = reason
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if now.Sub(row.UpdatedAt) < time.Microsecond {
		now = row.UpdatedAt.Add(time.Microsecond)
	}
	updates := map[string]interface{}{"config": raw, "updated_at": now}
	if to == addons.DomainActive {
		updates["is_active"] = true
		updates["is_purchased"] = true
		updates["purchase_type"] = addons.PurchaseManual
		updates["purchased_at"] = now
	}

	res := w.db.WithContext(ctx).
		Model(&addons.SiteAddon{}).
		Where("id = ? AND updated_at = ?", row.ID, row.UpdatedAt).
		UpdateColumns(updates)
	if res.Error != nil {
		return nil, apperr.Store("update domain request", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: the domain request for %s changed, reload and retry", apperr.ErrConflict, cfg.Domain)
	}

	w.log.Info("🌐 Domain request transitioned", "site_id", row.SiteID, "from", from, "to", to)
	return w.Get(ctx, row.SiteID)
}

// DeleteCancelled removes a cancelled request so the owner can ask again.
func (w *Workflow) DeleteCancelled(ctx context.Context, siteID string) error {
	req, err := w.Get(ctx, siteID)
	if err != nil {
		return err
	}
	if req.Status != addons.DomainCancelled {
		return fmt.Errorf("%w: only cancelled requests can be deleted (status %s)", apperr.ErrIllegalTransition, req.Status)
	}
	err = w.db.WithContext(ctx).
		Where("site_id = ? AND addon_type = ?", siteID, addons.TypeDomain).
		Delete(&addons.SiteAddon{}).Error
	return apperr.Store("delete domain request", err)
}

func (w *Workflow) Get(ctx context.Context, siteID string) (*Request, error) {
	row, err := w.addons.Get(ctx, siteID, addons.TypeDomain)
	if err != nil {
		return nil, err
	}
	return toRequest(*row)
}

// List returns every domain request, optionally filtered by status.
func (w *Workflow) List(ctx context.Context, status addons.DomainStatus) ([]Request, error) {
	var rows []addons.SiteAddon
	if err := w.db.WithContext(ctx).
		Where("addon_type = ?", addons.TypeDomain).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, apperr.Store("list domain requests", err)
	}

	out := make([]Request, 0, len(rows))
	for _, r := range rows {
		req, err := toRequest(r)
		if err != nil {
			w.log.Warn("⚠️ Skipping unreadable domain config", "site_id", r.SiteID, "err", err)
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func toRequest(row addons.SiteAddon) (*Request, error) {
	cfg, err := addons.ParseDomainConfig(row.Config)
	if err != nil {
		return nil, apperr.Store("decode domain config", err)
	}
	return &Request{
		SiteID:       row.SiteID,
		Domain:       cfg.Domain,
		Status:       cfg.Status,
		CancelReason: cfg.CancelReason,
		IsActive:     row.IsActive,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
