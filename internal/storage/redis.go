package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9" // Redis OpenTelemetry钩子
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// 为Redis操作定义专用tracer
var redisTracer = otel.Tracer("resume-parser/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client  *redis.Client
	textTTL time.Duration
}

// FormatKey 用键常量和动态部分生成Redis键
func FormatKey(keyConstant string, parts ...interface{}) string {
	return fmt.Sprintf(keyConstant, parts...)
}

// TextCacheKey 已提取文本的缓存键，格式 app:resume:text:{md5}
func TextCacheKey(md5 string) string {
	return FormatKey(constants.KeyResumeText, md5)
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries: cfg.MaxRetries,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client, config.GetDuration(cfg.TextCacheTTL, constants.DefaultTextCacheTTL)), nil
}

// NewRedisFromClient 使用已有客户端构造
func NewRedisFromClient(client *redis.Client, textTTL time.Duration) *Redis {
	if textTTL <= 0 {
		textTTL = constants.DefaultTextCacheTTL
	}
	return &Redis{Client: client, textTTL: textTTL}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

func startRedisSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return redisTracer.Start(ctx, "Redis."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", op),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		))
}

// GetDocument 读取缓存的提取结果，未命中返回 (nil, nil)
func (r *Redis) GetDocument(ctx context.Context, md5 string) (*types.Document, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}
	key := TextCacheKey(md5)
	ctx, span := startRedisSpan(ctx, "GET", key)
	defer span.End()

	val, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		// 对于key不存在的情况，不应该算作错误
		if errors.Is(err, ErrNotFound) {
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			return nil, nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, err
	}

	var doc types.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis, attribute.Bool("db.redis.corrupted", true))
		return nil, fmt.Errorf("解析缓存内容失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true), attribute.Int("db.redis.value_length", len(val)))
	return &doc, nil
}

// SetDocument 缓存提取结果
func (r *Redis) SetDocument(ctx context.Context, md5 string, doc *types.Document) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化缓存内容失败: %w", err)
	}
	key := TextCacheKey(md5)
	ctx, span := startRedisSpan(ctx, "SET", key)
	defer span.End()
	span.SetAttributes(attribute.Int64("db.redis.expiration_ms", r.textTTL.Milliseconds()))

	if err := r.Client.Set(ctx, key, data, r.textTTL).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	return nil
}
