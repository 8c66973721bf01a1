package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/types"
)

// Publisher 解析结果的下游接收方
type Publisher interface {
	Name() string
	Publish(ctx context.Context, run *types.ParseRun, record *types.ResumeRecord, payload []byte) error
}

var (
	_ Publisher = (*MinIO)(nil)
	_ Publisher = (*RabbitMQ)(nil)
	_ Publisher = (*MySQL)(nil)
	_ Publisher = (*XLSXExporter)(nil)
)

// Storage 存储管理器，聚合所有可选的外部依赖
// 每个组件只有在配置了地址时才会初始化，初始化失败只记录警告
type Storage struct {
	// 提取文本缓存
	Redis *Redis

	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 解析历史
	MySQL *MySQL

	// 本地表格导出
	XLSX *XLSXExporter

	// InitErrors 初始化失败的组件及原因
	InitErrors []string

	logger zerolog.Logger
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{logger: log}
	var err error

	// 初始化Redis (如果配置了)
	if cfg.Redis.Address != "" {
		log.Info().Str("address", cfg.Redis.Address).Msg("初始化Redis...")
		storage.Redis, err = NewRedisAdapter(ctx, &cfg.Redis)
		storage.recordInitError("Redis", err)
	}

	// 初始化MinIO（如果配置了）
	if cfg.MinIO.Endpoint != "" {
		log.Info().Str("endpoint", cfg.MinIO.Endpoint).Msg("初始化MinIO...")
		storage.MinIO, err = NewMinIO(ctx, &cfg.MinIO, log.With().Str("component", "minio").Logger())
		storage.recordInitError("MinIO", err)
	}

	// 初始化RabbitMQ（如果配置了）
	if cfg.RabbitMQ.URL != "" {
		log.Info().Msg("初始化RabbitMQ...")
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, log.With().Str("component", "rabbitmq").Logger())
		storage.recordInitError("RabbitMQ", err)
	}

	// 初始化MySQL（如果配置了）
	if cfg.MySQL.Host != "" {
		log.Info().Str("host", cfg.MySQL.Host).Msg("初始化MySQL...")
		storage.MySQL, err = NewMySQL(&cfg.MySQL, log.With().Str("component", "mysql").Logger())
		storage.recordInitError("MySQL", err)
	}

	if cfg.Export.XLSXPath != "" {
		storage.XLSX = NewXLSXExporter(cfg.Export.XLSXPath, log.With().Str("component", "xlsx").Logger())
	}

	if len(storage.InitErrors) > 0 {
		log.Warn().Msgf("以下存储组件初始化失败: %s", strings.Join(storage.InitErrors, "; "))
	}
	return storage, nil
}

func (s *Storage) recordInitError(component string, err error) {
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Str("component", component).Msg("初始化失败，已跳过")
	s.InitErrors = append(s.InitErrors, fmt.Sprintf("%s: %v", component, err))
}

// Publishers 按固定顺序返回已初始化的发布器
func (s *Storage) Publishers() []Publisher {
	var publishers []Publisher
	if s.XLSX != nil {
		publishers = append(publishers, s.XLSX)
	}
	if s.MinIO != nil {
		publishers = append(publishers, s.MinIO)
	}
	if s.MySQL != nil {
		publishers = append(publishers, s.MySQL)
	}
	if s.RabbitMQ != nil {
		publishers = append(publishers, s.RabbitMQ)
	}
	return publishers
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
