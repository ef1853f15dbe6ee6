package app

import (
	"log/slog"

	"microsite-app/config"
	"microsite-app/internal/infra/cache"
	"microsite-app/internal/infra/mailer"
	"microsite-app/internal/infra/stripe"
	"microsite-app/internal/services/accounts"
	addonsvc "microsite-app/internal/services/addons"
	couponsvc "microsite-app/internal/services/coupons"
	"microsite-app/internal/services/domains"
	"microsite-app/internal/services/inquiries"
	"microsite-app/internal/services/payments"
	"microsite-app/internal/services/sites"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ServicesModule provides the domain services.
var ServicesModule = fx.Module("services",
	fx.Provide(
		provideAccounts,
		provideSites,
		addonsvc.NewManager,
		couponsvc.NewValidator,
		provideGateway,
		providePayments,
		provideDomains,
		provideInquiries,
	),
)

func provideAccounts(db *gorm.DB, cfg *config.Config) *accounts.Service {
	return accounts.NewService(db, cfg.JWTSecret)
}

func provideSites(db *gorm.DB, cfg *config.Config) *sites.Service {
	return sites.NewService(db, cfg.TrialWindow)
}

// provideGateway returns a nil Gateway when Stripe is off so checkout is mocked.
func provideGateway(client *stripe.Client, cfg *config.Config) payments.Gateway {
	if client == nil {
		return nil
	}
	return payments.NewStripeGateway(client, cfg.Currency, cfg.AppURL)
}

func providePayments(
	db *gorm.DB,
	cfg *config.Config,
	coupons *couponsvc.Validator,
	addons *addonsvc.Manager,
	stage cache.Store,
	gateway payments.Gateway,
	logger *slog.Logger,
) *payments.Service {
	return payments.NewService(db, coupons, addons, stage, payments.Options{
		Gateway:  gateway,
		Prices:   payments.Prices{Subscription: cfg.SubscriptionPrice, Addon: cfg.AddonPrice},
		AppURL:   cfg.AppURL,
		StageTTL: cfg.CouponStageTTL,
		Logger:   logger,
	})
}

func provideDomains(db *gorm.DB, addons *addonsvc.Manager, checker domains.Checker, logger *slog.Logger) *domains.Workflow {
	return domains.NewWorkflow(db, addons, checker, logger)
}

func provideInquiries(db *gorm.DB, mail mailer.Sender, logger *slog.Logger) *inquiries.Service {
	return inquiries.NewService(db, mail, logger)
}
