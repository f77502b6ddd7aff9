package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"flick_shop/internal/audit"
	"flick_shop/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的共享缓存内存库。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedProduct(t *testing.T, db *gorm.DB, stock, price int64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Denim Jacket",
		ImageURL:      "https://img.example/denim.jpg",
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
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

func orderByID(t *testing.T, db *gorm.DB, id uint) *model.Order {
	t.Helper()
	var o model.Order
	require.NoError(t, db.Preload("Items").First(&o, id).Error)
	return &o
}

func validShipping() ShippingInput {
	return ShippingInput{
		Name:    "Rahim Uddin",
		Phone:   "01712345678",
		Address: "12 Green Road",
		City:    "Dhaka",
		State:   "Dhaka",
	}
}

// captureRecorder 收集审计事件供断言，线程安全。
type captureRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *captureRecorder) Record(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *captureRecorder) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, len(r.events))
	copy(out, r.events)
	return out
}
