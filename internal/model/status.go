package model

// OrderStatus 订单状态，闭集枚举。所有状态变更必须经过本文件的转移表校验，
// 禁止各接口各自散落判断。
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRejected   OrderStatus = "rejected"
)

// AllStatuses 全部七个合法状态标签，顺序即主流程顺序。
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRejected,
}

// Valid 判断是否是已知状态标签。
func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal 终态：delivered / cancelled / rejected 之后不再允许任何转移。
// rejected 与 cancelled 均为吸收态，否则已回补的库存会被二次回补。
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

// forwardTransitions 主流程的推进转移（管理员 status 接口允许的范围）。
// confirm / reject / cancel 带副作用，必须走各自专用入口，不在此表内。
var forwardTransitions = map[OrderStatus]OrderStatus{
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// CanAdvanceTo 判断通用状态更新接口能否从 from 推进到 to。
func CanAdvanceTo(from, to OrderStatus) bool {
	return forwardTransitions[from] == to
}

// CanConfirm 仅 pending 可确认。
func CanConfirm(from OrderStatus) bool {
	return from == StatusPending
}

// CanReject 已拒绝、已取消、已送达的订单不可再拒绝。
func CanReject(from OrderStatus) bool {
	return from != StatusRejected && from != StatusCancelled && from != StatusDelivered
}

// CanCancel 客户自助取消：终态订单一律不可取消。
func CanCancel(from OrderStatus) bool {
	return !from.IsTerminal()
}
