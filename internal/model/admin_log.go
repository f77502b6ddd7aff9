package model

import "time"

// AdminLog 管理操作审计，只追加、不修改、不删除。
// 写入走异步事件链路（Redis Stream → Kafka → consumer），
// 审计失败不得影响主事务结果。
type AdminLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// EventID 事件幂等键，消费端凭唯一索引去重。
	EventID    string `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	AdminID    uint   `gorm:"not null;index" json:"admin_id"`
	Action     string `gorm:"size:64;not null" json:"action"`
	EntityType string `gorm:"size:32;not null" json:"entity_type"`
	EntityID   uint   `gorm:"not null;index" json:"entity_id"`
	Details    string `gorm:"size:500" json:"details"`
}

func (AdminLog) TableName() string { return "admin_logs" }

// User 账号表的最小切面：下单归属、管理员删除用户时的校验对象。
// 认证、OTP、资料维护属于外部子系统。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name        string `gorm:"size:128;not null" json:"name"`
	PhoneNumber string `gorm:"size:32;uniqueIndex;not null" json:"phone_number"`
	Email       string `gorm:"size:128" json:"email,omitempty"`
}

func (User) TableName() string { return "users" }
