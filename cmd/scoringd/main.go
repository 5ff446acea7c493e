package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"Olympics-Scoring/internal/api"
	"Olympics-Scoring/internal/config"
	"Olympics-Scoring/internal/judge"
	"Olympics-Scoring/internal/observability/alerting"
	"Olympics-Scoring/internal/observability/metrics"
	"Olympics-Scoring/internal/puzzle"
	"Olympics-Scoring/internal/results"
	"Olympics-Scoring/pkg/logger"
)

// main 是评分引擎守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("scoringd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("SCORING_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "scoring.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled: cfg.Logging.AuditPath != "",
			Path:    cfg.Logging.AuditPath,
		},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 谜题存储。
	var store puzzle.Store
	switch cfg.Storage.PuzzleStore.Driver {
	case "", "memory":
		store = puzzle.NewMemoryStore()
	case "mysql":
		mysqlStore, err := puzzle.NewMySQLStore(cfg.Storage.PuzzleStore.DSN,
			cfg.Storage.PuzzleStore.MaxOpenConns, cfg.Storage.PuzzleStore.MaxIdleConns)
		if err != nil {
			return err
		}
		store = mysqlStore
	default:
		return fmt.Errorf("未知的存储驱动: %s", cfg.Storage.PuzzleStore.Driver)
	}
	defer func() { _ = store.Close() }()

	// 成绩事件发布器。
	var publisher results.Publisher
	switch cfg.Results.Driver {
	case "", "memory":
		publisher = results.NewMemoryPublisher()
	case "redis":
		redisPub, err := results.NewRedisPublisher(results.RedisConfig{
			Address:  cfg.Results.Redis.Address,
			Password: cfg.Results.Redis.Password,
			DB:       cfg.Results.Redis.DB,
			Queue:    cfg.Results.Redis.Queue,
		})
		if err != nil {
			return err
		}
		publisher = redisPub
	case "rabbitmq":
		rabbitPub, err := results.NewRabbitMQPublisher(results.RabbitMQConfig{
			URL:     cfg.Results.RabbitMQ.URL,
			Queue:   cfg.Results.RabbitMQ.Queue,
			Durable: cfg.Results.RabbitMQ.Durable,
		})
		if err != nil {
			return err
		}
		publisher = rabbitPub
	default:
		return fmt.Errorf("未知的结果队列驱动: %s", cfg.Results.Driver)
	}
	retrying := results.NewRetryPublisher(publisher, 256)
	retrying.Start(ctx)
	defer func() { _ = retrying.Close() }()

	// 评审量表与评审服务。
	rubrics, err := judge.LoadRubrics(cfg.Rubrics.Path)
	if err != nil {
		return err
	}
	judges, err := judge.NewService(judge.ServiceConfig{
		Rubrics:         rubrics,
		APIKey:          cfg.Judge.APIKey,
		BaseURL:         cfg.Judge.BaseURL,
		RouterKey:       cfg.Judge.RouterKey,
		RouterBaseURL:   cfg.Judge.RouterBaseURL,
		Timeout:         time.Duration(cfg.Judge.TimeoutSeconds) * time.Second,
		BreakerCooldown: time.Duration(cfg.Judge.BreakerCooldownSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	// 谜题服务。
	alerter := alerting.NewFanout(alerting.LogNotifier{})
	puzzles := puzzle.NewService(store, puzzle.NewBuiltinGenerator(), puzzle.NewEphemeralStore(),
		puzzle.WithAlertDispatcher(alerter))

	// 指标服务。
	if cfg.Observability.MetricsAddress != "" {
		go func() {
			if err := metrics.StartServer(ctx, cfg.Observability.MetricsAddress); err != nil &&
				!errors.Is(err, context.Canceled) {
				logger.L().Warn("指标服务退出", "error", err)
			}
		}()
	}

	server := api.NewServer(cfg.Server.Address, judges, puzzles, retrying)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
