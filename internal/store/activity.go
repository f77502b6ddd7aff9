package store

import (
	"context"
	"strings"

	"flick_shop/internal/model"

	"gorm.io/gorm"
)

// ActivityLogs 审计仓储，只有追加。
type ActivityLogs struct {
	db *gorm.DB
}

func NewActivityLogs(db *gorm.DB) *ActivityLogs {
	return &ActivityLogs{db: db}
}

// Append 追加一条审计记录。event_id 撞唯一索引视为重复投递，按成功处理。
func (r *ActivityLogs) Append(ctx context.Context, entry *model.AdminLog) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil && errorsLikeUnique(err) {
		return nil
	}
	return err
}

// Recent 最近若干条审计记录，排查用。
func (r *ActivityLogs) Recent(ctx context.Context, limit int) ([]model.AdminLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.AdminLog
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique") ||
		strings.Contains(s, "Duplicate")
}
