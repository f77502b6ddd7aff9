package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flick_shop/internal/audit"
	"flick_shop/internal/model"
	"flick_shop/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle 订单生命周期服务（管理员确认 / 拒单 / 推进状态，客户取消）。
// 所有转移都走 status 列的 CAS：先读订单做合法性判断，
// 事务内再以「旧状态」为条件更新；并发重复请求里只有一个能命中，
// 落败方整体回滚，带副作用的转移（库存回补）因此不可能被应用两次。
// 审计写入发生在事务提交之后，失败只丢日志，不影响主流程。
type Lifecycle struct {
	db       *gorm.DB
	recorder audit.Recorder
	log      *slog.Logger
}

func NewLifecycle(db *gorm.DB, recorder audit.Recorder, log *slog.Logger) *Lifecycle {
	return &Lifecycle{db: db, recorder: recorder, log: log}
}

// Confirm 确认订单：仅 pending 可确认，盖确认人与时间戳。
func (s *Lifecycle) Confirm(ctx context.Context, orderID, adminID uint, notes string) error {
	order, err := store.NewOrders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !model.CanConfirm(order.Status) {
		return transitionErr("confirm", order.Status)
	}

	extra := store.ConfirmStamp(adminID, time.Now())
	if strings.TrimSpace(notes) != "" {
		extra["admin_notes"] = notes
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return store.NewOrders(tx).TransitionStatus(ctx, orderID, model.StatusPending, model.StatusConfirmed, extra)
	})
	if err != nil {
		return err
	}

	s.record(ctx, adminID, "confirm_order", orderID,
		fmt.Sprintf("Confirmed order: %s", order.OrderNumber))
	return nil
}

// Reject 拒单：原因必填；回补全部订单行库存并置 rejected，同一事务提交。
func (s *Lifecycle) Reject(ctx context.Context, orderID, adminID uint, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}

	order, err := store.NewOrders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !model.CanReject(order.Status) {
		return transitionErr("reject", order.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := store.NewProductLedger(tx)
		for _, item := range order.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		extra := store.ConfirmStamp(adminID, time.Now())
		extra["admin_notes"] = reason
		return store.NewOrders(tx).TransitionStatus(ctx, orderID, order.Status, model.StatusRejected, extra)
	})
	if err != nil {
		return err
	}

	s.record(ctx, adminID, "reject_order", orderID,
		fmt.Sprintf("Rejected order: %s", order.OrderNumber))
	return nil
}

// UpdateStatus 通用状态推进接口。只接受主流程的向前转移
// （confirmed→processing→shipped→delivered）；进入 confirmed /
// rejected / cancelled 必须走专用入口，否则会绕开盖章与库存回补。
// notes 非空才覆盖 admin_notes，空值保留旧备注（COALESCE 语义）。
func (s *Lifecycle) UpdateStatus(ctx context.Context, orderID, adminID uint, target model.OrderStatus, notes string) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	order, err := store.NewOrders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !model.CanAdvanceTo(order.Status, target) {
		return fmt.Errorf("%w: cannot move a %s order to %s via status update; use the confirm/reject/cancel endpoints for transitions with side effects",
			ErrInvalidTransition, order.Status, target)
	}

	extra := map[string]any{}
	if strings.TrimSpace(notes) != "" {
		extra["admin_notes"] = notes
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return store.NewOrders(tx).TransitionStatus(ctx, orderID, order.Status, target, extra)
	})
	if err != nil {
		return err
	}

	s.record(ctx, adminID, "update_order_status", orderID,
		fmt.Sprintf("Updated order %s to %s", order.OrderNumber, target))
	return nil
}

// Cancel 客户自助取消，仅限本人订单；终态订单不可取消。
// 回补库存与状态变更同一事务提交。
func (s *Lifecycle) Cancel(ctx context.Context, orderID, userID uint) error {
	order, err := store.NewOrders(s.db).GetOwned(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if !model.CanCancel(order.Status) {
		return transitionErr("cancel", order.Status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := store.NewProductLedger(tx)
		for _, item := range order.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return store.NewOrders(tx).TransitionStatus(ctx, orderID, order.Status, model.StatusCancelled, nil)
	})
}

// DeleteUser 管理端删除用户（super_admin 专属入口在路由层把关）。
// 名下有订单的用户只能停用不能删，避免订单失去归属。
func (s *Lifecycle) DeleteUser(ctx context.Context, userID, adminID uint) error {
	users := store.NewUsers(s.db)
	u, err := users.Get(ctx, userID)
	if err != nil {
		return err
	}
	n, err := users.CountOrders(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d order(s)", ErrUserHasOrders, n)
	}
	if err := users.Delete(ctx, userID); err != nil {
		return err
	}

	s.record(ctx, adminID, "delete_user", userID,
		fmt.Sprintf("Deleted user: %s (%s)", u.Name, u.PhoneNumber))
	return nil
}

func (s *Lifecycle) record(ctx context.Context, adminID uint, action string, entityID uint, details string) {
	entityType := "order"
	if action == "delete_user" {
		entityType = "user"
	}
	s.recorder.Record(ctx, audit.Event{
		EventID:    uuid.New().String(),
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}
