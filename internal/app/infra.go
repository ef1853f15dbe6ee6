package app

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"microsite-app/config"
	"microsite-app/database"
	"microsite-app/internal/infra/blob"
	"microsite-app/internal/infra/cache"
	"microsite-app/internal/infra/mailer"
	"microsite-app/internal/infra/stripe"
	"microsite-app/internal/services/domains"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// InfraModule provides the store, cache, mailer, blob store and Stripe client.
var InfraModule = fx.Module("infra",
	fx.Provide(
		provideDB,
		provideCache,
		provideMailer,
		provideUploader,
		provideStripe,
		provideDNSChecker,
	),
)

// NewLogger builds the process logger from LOG_LEVEL.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func provideCache(lc fx.Lifecycle, cfg *config.Config) cache.Store {
	if cfg.RedisAddr == "" {
		slog.Warn("⚠️ REDIS_ADDR not set, staged coupons are kept in memory")
		return cache.NewMemoryStore()
	}
	store := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
	return store
}

func provideMailer(cfg *config.Config) mailer.Sender {
	if cfg.SMTPHost == "" {
		slog.Warn("⚠️ SMTP_HOST not set, emails are logged instead of sent")
		return mailer.LogMailer{}
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

// provideUploader returns a nil interface when S3 is not configured.
func provideUploader(cfg *config.Config) (blob.Uploader, error) {
	s3cfg := blob.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	}
	if !s3cfg.Enabled() {
		slog.Warn("⚠️ S3 not configured, image uploads are disabled")
		return nil, nil
	}
	store, err := blob.NewS3Store(context.Background(), s3cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func provideStripe(cfg *config.Config) *stripe.Client {
	if !cfg.StripeEnabled() {
		slog.Warn("⚠️ STRIPE_SECRET_KEY not set, card checkout is mocked")
		return nil
	}
	return stripe.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
}

func provideDNSChecker() domains.Checker {
	return domains.NewDNSChecker()
}
