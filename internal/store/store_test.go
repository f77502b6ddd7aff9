package store

import (
	"fmt"
	"strings"
	"testing"

	"flick_shop/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的共享缓存内存库。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.CartItem{},
		&model.AdminLog{},
		&model.User{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int64, price int64, active bool) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Denim Jacket",
		ImageURL:      "https://img.example/denim.jpg",
		Price:         price,
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func productStock(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Unscoped().First(&p, id).Error)
	return p.StockQuantity
}
