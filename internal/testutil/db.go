// Package testutil holds helpers shared by service and handler tests.
package testutil

import (
	"testing"
	"time"

	"microsite-app/database"
	"microsite-app/internal/domain/coupons"
	"microsite-app/internal/domain/site"
	"microsite-app/internal/domain/users"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Clock returns a fixed now func for services that take one.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func CreateUser(t *testing.T, db *gorm.DB, email string) users.User {
	t.Helper()
	u := users.User{Email: email, Password: "x", Role: users.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateSite(t *testing.T, db *gorm.DB, userID uint, isPaid bool, expiresAt time.Time) site.Site {
	t.Helper()
	s := site.Site{
		UserID:    userID,
		Status:    site.StatusActive,
		IsPaid:    isPaid,
		ExpiresAt: expiresAt,
		Content:   site.Content{Name: "Test Shop"},
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func CreateCoupon(t *testing.T, db *gorm.DB, c coupons.Coupon) coupons.Coupon {
	t.Helper()
	require.NoError(t, db.Create(&c).Error)
	return c
}
