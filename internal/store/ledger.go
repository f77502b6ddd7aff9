package store

import (
	"context"
	"errors"

	"flick_shop/internal/model"

	"gorm.io/gorm"
)

// ProductLedger 库存台账。Reserve / Restore 必须运行在调用方的事务句柄上，
// 即用事务内的 *gorm.DB 构造，保证检查与增减对并发下单原子。
type ProductLedger struct {
	db *gorm.DB
}

func NewProductLedger(db *gorm.DB) *ProductLedger {
	return &ProductLedger{db: db}
}

// Get 读取商品（含已下架）。找不到返回 ErrProductNotFound。
func (l *ProductLedger) Get(ctx context.Context, productID uint) (*model.Product, error) {
	var p model.Product
	if err := l.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Reserve 扣减库存。扣减本身是条件 UPDATE（stock_quantity >= ? 时才生效），
// 靠受影响行数判断成败，杜绝「先读后写」的超卖竞态。
// 前置读取只用于区分 not found / inactive / 库存不足三种错误。
func (l *ProductLedger) Reserve(ctx context.Context, productID uint, quantity int64) error {
	p, err := l.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return ErrProductInactive
	}

	res := l.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND is_active = ? AND stock_quantity >= ?", productID, true, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Restore 回补库存。下架（甚至软删）商品同样回补，
// 拒单 / 取消的库存归还不受在售状态限制。
func (l *ProductLedger) Restore(ctx context.Context, productID uint, quantity int64) error {
	res := l.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
