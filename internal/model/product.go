package model

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品：价格、库存、上下架状态。
// 目录管理（CRUD、图片）属于外部子系统，这里只做读取与库存增减。
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `gorm:"size:128;not null" json:"name"`
	ImageURL string `gorm:"size:255" json:"image_url"`
	// Price 金额统一用 int64 整数存储，避免浮点误差。
	Price         int64 `gorm:"not null" json:"price"`
	StockQuantity int64 `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool  `gorm:"not null;default:true" json:"is_active"`
}

func (Product) TableName() string { return "products" }
