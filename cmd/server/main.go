package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"flick_shop/internal/audit"
	"flick_shop/internal/config"
	"flick_shop/internal/model"
	"flick_shop/internal/router"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. 连接数据库，自动建表
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	err = db.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.CartItem{},
		&model.AdminLog{},
		&model.User{},
	)
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 审计链路：Stream 出站 → Relay 转 Kafka → Consumer 落 admin_logs
	producer := audit.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	relay := audit.NewRelay(rdb, producer, cfg.AuditEventStream, cfg.AuditEventGroup, cfg.AuditEventConsumer, logger)
	go relay.Run(ctx)

	consumer := audit.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db, logger)
	defer consumer.Close()
	go consumer.Run(ctx)

	recorder := audit.NewStreamRecorder(rdb, cfg.AuditEventStream, logger)

	// 3. HTTP
	r := gin.Default()
	router.Setup(r, db, rdb, recorder, cfg, logger)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
