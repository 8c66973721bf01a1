package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 定义错误类型，便于分类和过滤
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFile       ErrorType = "file"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeObject     ErrorType = "object_storage"
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypePublish    ErrorType = "publish"
	// ErrorTypeTimeout 上下文超时，优先于调用方给出的类型
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeInternal ErrorType = "internal"
)

// RecordError 记录错误，添加统一的错误类型和详情
func RecordError(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		errorType = ErrorTypeTimeout
	}

	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// RecordHTTPError 记录接口返回的错误状态码，4xx 和 5xx 分开归类
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}

	var errorCategory string
	switch {
	case statusCode >= 400 && statusCode < 500:
		errorCategory = "client_error"
	case statusCode >= 500:
		errorCategory = "server_error"
	default:
		errorCategory = "unknown"
	}

	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", errorCategory),
	)
}

// RecordPublishFailure 记录单个发布端失败，主流程不会因此失败
func RecordPublishFailure(span trace.Span, publisher string, err error) {
	if span == nil || err == nil {
		return
	}
	span.AddEvent("publish_failed", trace.WithAttributes(
		attribute.String("publisher", publisher),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	))
	span.SetAttributes(attribute.String("error.type", string(ErrorTypePublish)))
}
