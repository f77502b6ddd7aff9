package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"flick_shop/internal/model"
	"flick_shop/internal/store"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// messageReader 是 *kafka.Reader 的读取面。
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer 读取 Kafka 审计事件并落 admin_logs。
// event_id 撞唯一索引视为重复投递，直接跳过，保证至少一次投递下不重复记账。
type Consumer struct {
	r       messageReader
	logs    *store.ActivityLogs
	log     *slog.Logger
	backoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB, log *slog.Logger) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		logs:    store.NewActivityLogs(db),
		log:     log,
		backoff: time.Second,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			// Reader 被 Close 后返回 io.EOF，ctx 取消则直接收尾。
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			// broker 瞬断时退避重试，Reader 内部会重建连接。
			c.log.Error("consumer read", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		var e Event
		if err := json.Unmarshal(m.Value, &e); err != nil {
			c.log.Warn("consumer unmarshal", "err", err)
			continue
		}
		if err := e.Validate(); err != nil {
			c.log.Warn("consumer invalid event", "err", err)
			continue
		}

		entry := &model.AdminLog{
			EventID:    e.EventID,
			AdminID:    e.AdminID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Details:    e.Details,
		}
		if err := c.logs.Append(ctx, entry); err != nil {
			// 审计链路是尽力而为，写失败记日志后继续。
			c.log.Error("consumer append admin log", "event_id", e.EventID, "err", err)
			continue
		}
	}
}
