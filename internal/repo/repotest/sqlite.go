// Package repotest opens throwaway sqlite databases for repository tests.
package repotest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Open returns an isolated in-memory database with every model migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repotest_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// SeedProduct inserts an active product with the given stock level.
func SeedProduct(t testing.TB, db *gorm.DB, product models.Product, stock int) models.Product {
	t.Helper()
	product.IsActive = true
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := models.InventoryItem{ProductID: product.ID, StockQty: stock}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product
}

// SeedUser inserts a user. Empty strings leave the profile field nil.
func SeedUser(t testing.TB, db *gorm.DB, user models.User) models.User {
	t.Helper()
	if user.Email == "" {
		user.Email = uuid.NewString() + "@example.com"
	}
	if user.Role == "" {
		user.Role = "user"
	}
	user.IsActive = true
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
