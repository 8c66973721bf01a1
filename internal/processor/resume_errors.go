package processor

import (
	"errors"
	"fmt"

	"resume-parser-go/internal/tracing"
)

// 定义基础错误类型
var (
	ErrResumeNotFound    = errors.New("简历文件不存在")
	ErrExtractionFailed  = errors.New("提取简历文本失败")
	ErrInvalidRecord     = errors.New("简历记录未通过结构校验")
	ErrWriteOutputFailed = errors.New("写入输出文件失败")
	ErrPublishFailed     = errors.New("发布解析结果失败")
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	Path    string
	Op      string
	BaseErr error
	Detail  string
	Cause   error
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 路径:%s): %s", e.BaseErr, e.Op, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 路径:%s)", e.BaseErr, e.Op, e.Path)
}

// Unwrap 同时暴露基础错误和底层原因，errors.Is 可以匹配任意一个
func (e *ResumeProcessError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProcessError(path, op string, base, cause error) error {
	pe := &ResumeProcessError{Path: path, Op: op, BaseErr: base, Cause: cause}
	if cause != nil {
		pe.Detail = cause.Error()
	}
	return pe
}

// 错误构造函数
func NewNotFoundError(path string, cause error) error {
	return newProcessError(path, "load", ErrResumeNotFound, cause)
}

func NewExtractionError(path string, cause error) error {
	return newProcessError(path, "extract", ErrExtractionFailed, cause)
}

func NewValidationError(path string, cause error) error {
	return newProcessError(path, "validate", ErrInvalidRecord, cause)
}

func NewWriteError(path string, cause error) error {
	return newProcessError(path, "write", ErrWriteOutputFailed, cause)
}

func NewPublishError(publisher string, cause error) error {
	return newProcessError(publisher, "publish", ErrPublishFailed, cause)
}

// IsFatal 判断错误是否应当终止本次解析
// 发布失败和缓存失败都不是致命错误
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrResumeNotFound) ||
		errors.Is(err, ErrExtractionFailed) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrWriteOutputFailed)
}

func traceErrorType(err error) tracing.ErrorType {
	switch {
	case errors.Is(err, ErrResumeNotFound):
		return tracing.ErrorTypeNotFound
	case errors.Is(err, ErrExtractionFailed):
		return tracing.ErrorTypeExtraction
	case errors.Is(err, ErrInvalidRecord):
		return tracing.ErrorTypeValidation
	case errors.Is(err, ErrWriteOutputFailed):
		return tracing.ErrorTypeFile
	case errors.Is(err, ErrPublishFailed):
		return tracing.ErrorTypePublish
	default:
		return tracing.ErrorTypeInternal
	}
}
