package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flick_shop/internal/model"
	"flick_shop/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// ShippingCostFlat 全国统一运费。
	ShippingCostFlat int64 = 120
	// TaxFlat 目前不收税。
	TaxFlat int64 = 0

	defaultPaymentMethod = "COD"
	defaultZip           = "N/A"
	defaultCountry       = "Bangladesh"
)

// LineInput 下单的一行：商品、数量、可选规格。
type LineInput struct {
	ProductID     uint
	Quantity      int64
	SelectedSize  string
	SelectedColor string
}

// ShippingInput 收货信息。name/phone/address/city/state 必填，
// zip 与 country 缺省时填默认值。
type ShippingInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	City    string
	State   string
	Zip     string
	Country string
}

// CreateOrderInput 创建订单的全部入参。
// UserID 为 nil 表示游客单；ClearCart 表示购物车下单路径，
// 成功后要在同一事务内清空该账号购物车。
type CreateOrderInput struct {
	UserID        *uint
	Lines         []LineInput
	Shipping      ShippingInput
	PaymentMethod string
	Notes         string
	ClearCart     bool
}

// Checkout 订单创建服务。
// 订单、订单行、库存扣减、购物车清空全部落在同一个数据库事务里，
// 任一行商品缺货 / 下架 / 不存在都会整单回滚——永远不存在部分成交。
type Checkout struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCheckout(db *gorm.DB, log *slog.Logger) *Checkout {
	return &Checkout{db: db, log: log}
}

// Create 创建订单。返回已落库的订单（含行与总额）。
func (s *Checkout) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if err := validateShipping(&in.Shipping); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, validationf("order items are required")
	}
	for _, l := range in.Lines {
		if l.ProductID == 0 {
			return nil, validationf("product id is required")
		}
		if l.Quantity <= 0 {
			return nil, validationf("quantity must be positive")
		}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		in.PaymentMethod = defaultPaymentMethod
	}

	order := &model.Order{
		OrderNumber:     newOrderNumber(),
		Status:          model.StatusPending,
		ShippingCost:    ShippingCostFlat,
		Tax:             TaxFlat,
		ShippingName:    in.Shipping.Name,
		ShippingPhone:   in.Shipping.Phone,
		ShippingEmail:   in.Shipping.Email,
		ShippingAddress: in.Shipping.Address,
		ShippingCity:    in.Shipping.City,
		ShippingState:   in.Shipping.State,
		ShippingZip:     in.Shipping.Zip,
		ShippingCountry: in.Shipping.Country,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
	}
	// 游客单与账号单互斥：有账号引用就不落 guest 字段，反之亦然。
	if in.UserID != nil {
		order.UserID = in.UserID
	} else {
		order.GuestName = in.Shipping.Name
		order.GuestPhone = in.Shipping.Phone
		order.GuestEmail = in.Shipping.Email
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := store.NewProductLedger(tx)
		orders := store.NewOrders(tx)

		var subtotal int64
		items := make([]model.OrderItem, 0, len(in.Lines))
		for _, l := range in.Lines {
			p, err := ledger.Get(ctx, l.ProductID)
			if err != nil {
				return fmt.Errorf("%w: product %d", err, l.ProductID)
			}
			if !p.IsActive {
				return fmt.Errorf("%w: product %d", store.ErrProductInactive, l.ProductID)
			}

			lineSubtotal := p.Price * l.Quantity
			subtotal += lineSubtotal
			items = append(items, model.OrderItem{
				ProductID:     p.ID,
				ProductName:   p.Name,
				ProductImage:  p.ImageURL,
				SelectedSize:  l.SelectedSize,
				SelectedColor: l.SelectedColor,
				Quantity:      l.Quantity,
				Price:         p.Price,
				Subtotal:      lineSubtotal,
			})
		}

		order.Subtotal = subtotal
		order.TotalAmount = subtotal + order.ShippingCost + order.Tax
		order.Items = items

		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		// 扣库存放在订单落库之后、同一事务内；条件 UPDATE 保证并发下不超卖。
		for _, l := range in.Lines {
			if err := ledger.Reserve(ctx, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("%w: product %d", err, l.ProductID)
			}
		}

		if in.UserID != nil && in.ClearCart {
			if err := store.ClearCart(ctx, tx, *in.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.TotalAmount,
		"guest", order.IsGuest(),
	)
	return order, nil
}

// CreateDirect 单商品直购（游客或登录均可），与购物车下单共用同一套流程。
func (s *Checkout) CreateDirect(ctx context.Context, userID *uint, line LineInput, shipping ShippingInput, paymentMethod, notes string) (*model.Order, error) {
	return s.Create(ctx, CreateOrderInput{
		UserID:        userID,
		Lines:         []LineInput{line},
		Shipping:      shipping,
		PaymentMethod: paymentMethod,
		Notes:         notes,
	})
}

func validateShipping(sh *ShippingInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"name", sh.Name},
		{"phone", sh.Phone},
		{"address", sh.Address},
		{"city", sh.City},
		{"state", sh.State},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return validationf("shipping %s is required", f.name)
		}
	}
	if strings.TrimSpace(sh.Zip) == "" {
		sh.Zip = defaultZip
	}
	if strings.TrimSpace(sh.Country) == "" {
		sh.Country = defaultCountry
	}
	return nil
}

// newOrderNumber 生成人类可读订单号：毫秒时间戳 + 随机后缀。
// 只要求实际无碰撞（orders.order_number 另有唯一索引兜底），不要求密码学强度。
func newOrderNumber() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
