package model

import "time"

// CartItem 购物车行。购物车的增删属于外部子系统，
// 这里仅在购物车下单成功时于同一事务内清空。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID        uint   `gorm:"not null;index" json:"user_id"`
	ProductID     uint   `gorm:"not null;index" json:"product_id"`
	Quantity      int64  `gorm:"not null;default:1" json:"quantity"`
	SelectedSize  string `gorm:"size:32" json:"selected_size,omitempty"`
	SelectedColor string `gorm:"size:32" json:"selected_color,omitempty"`
}

func (CartItem) TableName() string { return "cart_items" }
