package service

import (
	"errors"
	"fmt"

	"flick_shop/internal/model"
)

// 业务规则错误。全部在任何写之前、或在会被整体回滚的事务内检出，
// 永不半途生效。
var (
	// ErrInvalidTransition 非法状态转移，操作无任何副作用。
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrMissingReason 拒单必须给原因。
	ErrMissingReason = errors.New("rejection reason is required")
	// ErrInvalidStatus 未知状态标签。
	ErrInvalidStatus = errors.New("invalid status label")
	// ErrUserHasOrders 名下有订单的用户不可删除。
	ErrUserHasOrders = errors.New("user has orders and cannot be deleted")
)

// ValidationError 请求字段校验失败，带给调用方的可读信息。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func transitionErr(action string, from model.OrderStatus) error {
	return fmt.Errorf("%w: cannot %s a %s order", ErrInvalidTransition, action, from)
}
