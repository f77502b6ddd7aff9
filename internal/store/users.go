package store

import (
	"context"
	"errors"

	"flick_shop/internal/model"

	"gorm.io/gorm"
)

// Users 账号仓储的最小切面：管理端删除用户前的校验与删除本身。
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (r *Users) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CountOrders 该账号名下订单数。有订单的用户不可删除。
func (r *Users) CountOrders(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// List 管理端用户列表，新注册在前。分页参数与订单列表同一套约束。
func (r *Users) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := r.db.WithContext(ctx).Model(&model.User{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.User
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&list).Error
	return list, total, err
}

func (r *Users) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearCart 清空账号购物车；购物车下单事务的一环。
func ClearCart(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
}
