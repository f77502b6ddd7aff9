package store

import (
	"context"

	"flick_shop/internal/model"

	"gorm.io/gorm"
)

// Stats 管理端看板的聚合读数，全部由现有表派生。
type Stats struct {
	TotalOrders      int64 `json:"total_orders"`
	PendingOrders    int64 `json:"pending_orders"`
	ConfirmedOrders  int64 `json:"confirmed_orders"`
	DeliveredOrders  int64 `json:"delivered_orders"`
	TotalRevenue     int64 `json:"total_revenue"`
	DeliveredRevenue int64 `json:"delivered_revenue"`

	TotalProducts int64 `json:"total_products"`
	TotalStock    int64 `json:"total_stock"`
	OutOfStock    int64 `json:"out_of_stock"`

	TotalUsers int64 `json:"total_users"`

	RecentOrders []model.Order `json:"recent_orders"`
}

// LoadStats 汇总订单 / 商品 / 用户计数与营收。只读，不参与任何事务。
func LoadStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	var s Stats

	type orderAgg struct {
		TotalOrders      int64
		PendingOrders    int64
		ConfirmedOrders  int64
		DeliveredOrders  int64
		TotalRevenue     int64
		DeliveredRevenue int64
	}
	var oa orderAgg
	err := db.WithContext(ctx).Model(&model.Order{}).
		Select(`COUNT(*) AS total_orders,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS pending_orders,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS confirmed_orders,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS delivered_orders,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(CASE WHEN status = ? THEN total_amount ELSE 0 END), 0) AS delivered_revenue`,
			model.StatusPending, model.StatusConfirmed, model.StatusDelivered, model.StatusDelivered).
		Scan(&oa).Error
	if err != nil {
		return nil, err
	}
	s.TotalOrders = oa.TotalOrders
	s.PendingOrders = oa.PendingOrders
	s.ConfirmedOrders = oa.ConfirmedOrders
	s.DeliveredOrders = oa.DeliveredOrders
	s.TotalRevenue = oa.TotalRevenue
	s.DeliveredRevenue = oa.DeliveredRevenue

	type productAgg struct {
		TotalProducts int64
		TotalStock    int64
		OutOfStock    int64
	}
	var pa productAgg
	err = db.WithContext(ctx).Model(&model.Product{}).
		Select(`COUNT(*) AS total_products,
			COALESCE(SUM(stock_quantity), 0) AS total_stock,
			SUM(CASE WHEN stock_quantity = 0 THEN 1 ELSE 0 END) AS out_of_stock`).
		Scan(&pa).Error
	if err != nil {
		return nil, err
	}
	s.TotalProducts = pa.TotalProducts
	s.TotalStock = pa.TotalStock
	s.OutOfStock = pa.OutOfStock

	if err := db.WithContext(ctx).Model(&model.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Order("created_at DESC").Limit(10).Find(&s.RecentOrders).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
