package payments

import (
	"context"
	"log/slog"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/infra/cache"
	addonsvc "microsite-app/internal/services/addons"
	couponsvc "microsite-app/internal/services/coupons"

	"gorm.io/gorm"
)

// Gateway is a hosted card checkout. Nil means checkout is mocked.
type Gateway interface {
	// StartCheckout returns the URL to redirect the buyer to.
	StartCheckout(ctx context.Context, req GatewayRequest) (string, error)
	// VerifyPayment confirms a returned payment id was paid and reports the
	// captured amount and who the checkout was started for.
	VerifyPayment(ctx context.Context, paymentID string) (VerifiedPayment, error)
}

type VerifiedPayment struct {
	Amount int64
	UserID uint
	SiteID string
}

type GatewayRequest struct {
	UserID      uint
	SiteID      string
	Amount      int64
	ProductName string
}

type Prices struct {
	Subscription int64
	Addon        int64
}

// SubscriptionPeriod is how long one payment extends a site.
const SubscriptionPeriod = 365 * 24 * time.Hour

type Service struct {
	db       *gorm.DB
	coupons  *couponsvc.Validator
	addons   *addonsvc.Manager
	stage    cache.Store
	gateway  Gateway
	prices   Prices
	appURL   string
	stageTTL time.Duration
	now      func() time.Time
	log      *slog.Logger
}

type Options struct {
	Gateway  Gateway
	Prices   Prices
	AppURL   string
	StageTTL time.Duration
	Logger   *slog.Logger
}

func NewService(db *gorm.DB, coupons *couponsvc.Validator, addons *addonsvc.Manager, stage cache.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StageTTL == 0 {
		opts.StageTTL = 30 * time.Minute
	}
	return &Service{
		db:       db,
		coupons:  coupons,
		addons:   addons,
		stage:    stage,
		gateway:  opts.Gateway,
		prices:   opts.Prices,
		appURL:   opts.AppURL,
		stageTTL: opts.StageTTL,
		now:      time.Now,
		log:      opts.Logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// History lists the ledger rows of one user, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]billing.Payment, error) {
	var list []billing.Payment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Store("load payments", err)
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]billing.Payment, error) {
	var list []billing.Payment
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Store("load payments", err)
	}
	return list, nil
}
