package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lexichat/internal/ai"
	"lexichat/internal/config"
	"lexichat/internal/model"
	"lexichat/internal/pkg/logger"
	mysqlClient "lexichat/internal/platform/mysql"
	rabbitmqClient "lexichat/internal/platform/rabbitmq"
	redisClient "lexichat/internal/platform/redis"
	"lexichat/internal/repository"
	"lexichat/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	Completion     *ai.Client
	EventPublisher *rabbitmqClient.EventPublisher
	EventWorker    *worker.ChatEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.ChatSession{},
		&model.Message{},
		&model.ChatEventRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	completion := ai.NewClient(ai.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Reply: ai.CallOptions{
			Temperature: cfg.LLM.Reply.Temperature,
			MaxTokens:   cfg.LLM.Reply.MaxTokens,
		},
		Title: ai.CallOptions{
			Temperature: cfg.LLM.Title.Temperature,
			MaxTokens:   cfg.LLM.Title.MaxTokens,
		},
	})

	eventPublisher := rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.ChatEventQueue)
	eventRepo := repository.NewEventRepository(mysqlDB)
	eventWorker := worker.NewChatEventWorker(mqConn, eventRepo, cfg.RabbitMQ.ChatEventQueue)
	if err := eventWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start chat event worker failed: %w", err)
	}

	return &App{
		Config:         cfg,
		MySQL:          mysqlDB,
		Redis:          redisCli,
		MQConn:         mqConn,
		Completion:     completion,
		EventPublisher: eventPublisher,
		EventWorker:    eventWorker,
		StartedAt:      time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
