package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"flick_shop/internal/model"

	"gorm.io/gorm"
)

// Orders 订单仓储。写路径全部要求事务内句柄。
type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Create 落订单与订单行（gorm 级联插入 Items）。
func (r *Orders) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 按主键读订单（含订单行）。
func (r *Orders) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetOwned 只返回属于该账号的订单，他人订单一律视作不存在。
func (r *Orders) GetOwned(ctx context.Context, id, userID uint) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListByUser 账号名下订单，新单在前。
func (r *Orders) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var list []model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// AdminFilter 管理端订单列表的过滤条件。
type AdminFilter struct {
	Page   int
	Limit  int
	Status model.OrderStatus
	Search string
}

// Normalize 把分页参数约束到合法区间。路由层回显给前端的
// page/limit 与这里实际查询用的必须是同一份取值。
func (f AdminFilter) Normalize() AdminFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

// ListAdmin 管理端分页列表：按状态过滤，按订单号 / 收货人 / 收货电话模糊搜索。
func (r *Orders) ListAdmin(ctx context.Context, f AdminFilter) ([]model.Order, int64, error) {
	f = f.Normalize()

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("order_number LIKE ? OR shipping_name LIKE ? OR shipping_phone LIKE ?",
			like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Order
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&list).Error
	return list, total, err
}

// TransitionStatus 状态转移的唯一写入口：对 status 列做 CAS。
// WHERE 带上期望的旧状态，受影响行数为 0 即说明订单已被并发改走，
// 返回 ErrStatusConflict，调用方整体回滚。重复的拒单 / 取消请求
// 由此天然互斥，库存不可能被二次回补。
func (r *Orders) TransitionStatus(ctx context.Context, id uint, from, to model.OrderStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ConfirmStamp 确认 / 拒单时的审计字段。
func ConfirmStamp(adminID uint, at time.Time) map[string]any {
	return map[string]any{
		"confirmed_by": adminID,
		"confirmed_at": at,
	}
}
