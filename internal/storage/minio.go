package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

var minioTracer = otel.Tracer("resume-parser/storage/minio")

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadBytes 上传字节内容到默认存储桶
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

	// DownloadFile 下载文件
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)

	// GetPresignedURL 获取预签名URL
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 将解析结果发布到对象存储，供静态站点构建时拉取
type MinIO struct {
	client     *minio.Client
	bucket     string
	objectName string
	logger     zerolog.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	logger.Debug().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("初始化MinIO客户端")

	// 创建MinIO客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:     client,
		bucket:     cfg.BucketName,
		objectName: cfg.ObjectName,
		logger:     logger,
	}

	// 确保存储桶存在
	if err := m.ensureBucketExists(ctx, cfg.BucketName, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", cfg.BucketName, err)
	}
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		m.logger.Info().Str("bucket", bucketName).Msg("存储桶不存在，正在创建")
		err = m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
	}
	return nil
}

// UploadBytes 上传字节内容，返回对象名
func (m *MinIO) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.PutObject", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("minio.bucket", m.bucket),
			attribute.String("minio.object", tracing.SafePath(objectName)),
			attribute.Int("minio.size", len(data)),
		))
	defer span.End()

	info, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		err = fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
		tracing.RecordError(span, err, tracing.ErrorTypeObject)
		return "", err
	}
	m.logger.Debug().Str("object", objectName).Int64("size", info.Size).Msg("上传完成")
	return objectName, nil
}

// DownloadFile 下载文件
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", objectName, err)
	}
	return buf.Bytes(), nil
}

// GetPresignedURL 获取预签名URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

// Name 实现发布器接口
func (m *MinIO) Name() string { return "minio" }

// Publish 把输出文件的字节原样上传到配置的对象名
func (m *MinIO) Publish(ctx context.Context, run *types.ParseRun, _ *types.ResumeRecord, payload []byte) error {
	_, err := m.UploadBytes(ctx, m.objectName, payload, "application/json; charset=utf-8")
	if err != nil {
		return err
	}
	m.logger.Info().Str("run_id", run.RunID).Str("bucket", m.bucket).Str("object", m.objectName).Msg("解析结果已上传到MinIO")
	return nil
}

// DownloadPublished 读取最近一次发布的JSON
func (m *MinIO) DownloadPublished(ctx context.Context) ([]byte, error) {
	return m.DownloadFile(ctx, m.objectName)
}

// PresignPublished 为最近一次发布的JSON生成临时下载地址
func (m *MinIO) PresignPublished(ctx context.Context, expiry time.Duration) (string, error) {
	return m.GetPresignedURL(ctx, m.objectName, expiry)
}
