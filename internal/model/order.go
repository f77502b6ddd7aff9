package model

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单聚合根。
// 不变量：
//   - TotalAmount == Subtotal + ShippingCost + Tax，创建后不再重算；
//   - UserID 与 GuestName/GuestPhone 二者恰有其一（游客单 vs 账号单）；
//   - 订单创建后仅允许通过生命周期服务修改状态与管理员备注，永不物理删除。
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderNumber string `gorm:"size:64;uniqueIndex;not null" json:"order_number"`

	// UserID 为空表示游客单，此时 Guest* 三项生效。
	UserID     *uint  `gorm:"index" json:"user_id"`
	GuestName  string `gorm:"size:128" json:"guest_name,omitempty"`
	GuestPhone string `gorm:"size:32" json:"guest_phone,omitempty"`
	GuestEmail string `gorm:"size:128" json:"guest_email,omitempty"`

	Subtotal     int64 `gorm:"not null" json:"subtotal"`
	ShippingCost int64 `gorm:"not null" json:"shipping_cost"`
	Tax          int64 `gorm:"not null" json:"tax"`
	TotalAmount  int64 `gorm:"not null" json:"total_amount"`

	ShippingName    string `gorm:"size:128;not null" json:"shipping_name"`
	ShippingPhone   string `gorm:"size:32;not null" json:"shipping_phone"`
	ShippingEmail   string `gorm:"size:128" json:"shipping_email,omitempty"`
	ShippingAddress string `gorm:"size:255;not null" json:"shipping_address"`
	ShippingCity    string `gorm:"size:64;not null" json:"shipping_city"`
	ShippingState   string `gorm:"size:64;not null" json:"shipping_state"`
	ShippingZip     string `gorm:"size:16" json:"shipping_zip"`
	ShippingCountry string `gorm:"size:64" json:"shipping_country"`

	// PaymentMethod 仅记录标签（如 COD），不接支付网关。
	PaymentMethod string `gorm:"size:32;not null" json:"payment_method"`
	Notes         string `gorm:"size:500" json:"notes"`
	AdminNotes    string `gorm:"size:500" json:"admin_notes"`

	Status OrderStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`

	// 确认审计：确认人与时间，confirm / reject 时盖章。
	ConfirmedBy *uint      `gorm:"index" json:"confirmed_by"`
	ConfirmedAt *time.Time `json:"confirmed_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// IsGuest 游客单判定。
func (o *Order) IsGuest() bool { return o.UserID == nil }

// OrderItem 订单行。商品名称与图片为下单时刻的快照，
// 商品后续被编辑或删除不影响历史订单展示。
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID      uint   `gorm:"not null;index" json:"order_id"`
	ProductID    uint   `gorm:"not null;index" json:"product_id"`
	ProductName  string `gorm:"size:128;not null" json:"product_name"`
	ProductImage string `gorm:"size:255" json:"product_image"`

	SelectedSize  string `gorm:"size:32" json:"selected_size,omitempty"`
	SelectedColor string `gorm:"size:32" json:"selected_color,omitempty"`

	Quantity int64 `gorm:"not null" json:"quantity"`
	// Price 单价快照；Subtotal = Price * Quantity。
	Price    int64 `gorm:"not null" json:"price"`
	Subtotal int64 `gorm:"not null" json:"subtotal"`
}

func (OrderItem) TableName() string { return "order_items" }
