package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

var mysqlTracer = otel.Tracer("resume-parser/storage/mysql")

type spanCtxKey struct{}

// GormTracingPlugin 为每条SQL创建一个客户端span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
		fn       func(*gorm.DB)
	}{
		{"otel:before_create", cb.Create().Before("gorm:create").Register, p.before("INSERT")},
		{"otel:after_create", cb.Create().After("gorm:create").Register, p.after},
		{"otel:before_query", cb.Query().Before("gorm:query").Register, p.before("SELECT")},
		{"otel:after_query", cb.Query().After("gorm:query").Register, p.after},
		{"otel:before_raw", cb.Raw().Before("gorm:raw").Register, p.before("RAW")},
		{"otel:after_raw", cb.Raw().After("gorm:raw").Register, p.after},
	}
	for _, h := range hooks {
		if err := h.register(h.name, h.fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(newCtx, spanCtxKey{}, span)
	}
}

func (p *GormTracingPlugin) after(db *gorm.DB) {
	span, ok := db.Statement.Context.Value(spanCtxKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if stmt := db.Statement.SQL.String(); stmt != "" {
		span.SetAttributes(attribute.String("db.statement", tracing.SafeSQL(stmt)))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
	}
}

// MySQL 保存解析历史快照
type MySQL struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewMySQL 创建MySQL客户端并迁移快照表
func NewMySQL(cfg *config.MySQLConfig, log zerolog.Logger) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		Logger:      logger.Default.LogMode(logLevel),
		PrepareStmt: true, // 开启预编译语句缓存
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	// 设置连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	// 注册OpenTelemetry追踪插件
	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)}).
		AutoMigrate(&models.ResumeSnapshot{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成迁移")
	return &MySQL{db: db, logger: log}, nil
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// NewSnapshot 由一次解析构造快照行
func NewSnapshot(run *types.ParseRun, record *types.ResumeRecord, payload []byte) (*models.ResumeSnapshot, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("生成快照ID失败: %w", err)
	}
	return &models.ResumeSnapshot{
		SnapshotID:  id.String(),
		RunID:       run.RunID,
		SourcePath:  run.SourcePath,
		SourceMD5:   run.SourceMD5,
		OutputPath:  run.OutputPath,
		Name:        record.Name,
		Email:       record.Contact.Email,
		PageCount:   run.PageCount,
		SkillsCount: len(record.Skills),
		Payload:     datatypes.JSON(payload),
		ParsedAt:    run.ParsedAt,
	}, nil
}

// Name 实现发布器接口
func (m *MySQL) Name() string { return "mysql" }

// Publish 追加一条解析快照
func (m *MySQL) Publish(ctx context.Context, run *types.ParseRun, record *types.ResumeRecord, payload []byte) error {
	snapshot, err := NewSnapshot(run, record, payload)
	if err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("保存解析快照失败: %w", err)
	}
	m.logger.Debug().Str("snapshot_id", snapshot.SnapshotID).Msg("解析快照已保存")
	return nil
}

// LatestSnapshots 按解析时间倒序返回最近的快照
func (m *MySQL) LatestSnapshots(ctx context.Context, limit int) ([]models.ResumeSnapshot, error) {
	var snapshots []models.ResumeSnapshot
	err := m.db.WithContext(ctx).Order("parsed_at DESC").Limit(limit).Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("查询解析快照失败: %w", err)
	}
	return snapshots, nil
}
