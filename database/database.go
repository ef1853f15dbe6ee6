package database

import (
	"fmt"
	"log/slog"

	"microsite-app/config"
	"microsite-app/internal/domain/addons"
	"microsite-app/internal/domain/billing"
	"microsite-app/internal/domain/coupons"
	"microsite-app/internal/domain/inquiries"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&users.User{},
		&site.Site{},
		&addons.SiteAddon{},
		&coupons.Coupon{},
		&billing.Payment{},
		&billing.CouponUsage{},
		&inquiries.Inquiry{},
	}
}

func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("✅ Connected to database")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	slog.Info("✅ Migrated schema", "tables", len(Models()))
	return nil
}
