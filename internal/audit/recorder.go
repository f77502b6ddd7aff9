package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// Recorder 审计落点。生命周期服务在主事务提交之后调用，
// 实现方必须把失败吞在内部：审计是诊断数据，不承载业务正确性。
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// StreamRecorder 把事件 XADD 进 Redis Stream（出站 outbox），
// 由 Relay 异步转发 Kafka。写失败仅记日志。
type StreamRecorder struct {
	rdb    *rd.Client
	stream string
	log    *slog.Logger
}

func NewStreamRecorder(rdb *rd.Client, stream string, log *slog.Logger) *StreamRecorder {
	return &StreamRecorder{rdb: rdb, stream: stream, log: log}
}

func (r *StreamRecorder) Record(ctx context.Context, e Event) {
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	// 主事务已提交，这里不复用请求 ctx 的剩余超时，单独给个短窗口。
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := r.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: r.stream,
		Values: e.StreamValues(),
	}).Err()
	if err != nil {
		r.log.Error("audit record dropped", "event_id", e.EventID, "action", e.Action, "err", err)
	}
}

// Discard 空实现，测试与无 Redis 场景用。
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
