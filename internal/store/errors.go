package store

import "errors"

// 仓储层哨兵错误。服务层据此决定回滚与对外错误语义，
// 路由层据此映射 HTTP 状态码。
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not active")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")

	// ErrStatusConflict 状态 CAS 未命中：订单已被并发请求改走。
	// 调用方必须整体回滚，绝不能在旧状态假设下继续写库存。
	ErrStatusConflict = errors.New("order status changed concurrently")
)
