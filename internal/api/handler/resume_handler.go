package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
)

const jsonContentType = "application/json; charset=utf-8"

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	presignExpiry       = 15 * time.Minute
)

// SnapshotReader 读取解析历史
type SnapshotReader interface {
	LatestSnapshots(ctx context.Context, limit int) ([]models.ResumeSnapshot, error)
}

// PublishedStore 已发布到对象存储的JSON
type PublishedStore interface {
	DownloadPublished(ctx context.Context) ([]byte, error)
	PresignPublished(ctx context.Context, expiry time.Duration) (string, error)
}

// Pinger 健康检查时探测的外部依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResumeHandler 简历预览与在线解析接口
type ResumeHandler struct {
	cfg       *config.Config
	processor *processor.ResumeProcessor
	logger    zerolog.Logger

	snapshots SnapshotReader
	published PublishedStore
	pingers   map[string]Pinger
}

// Option 可选依赖，未配置的外部服务对应的接口返回503
type Option func(*ResumeHandler)

// WithSnapshots 开启解析历史接口
func WithSnapshots(r SnapshotReader) Option {
	return func(h *ResumeHandler) {
		h.snapshots = r
	}
}

// WithPublishedStore 本地输出文件不存在时从对象存储读取
func WithPublishedStore(p PublishedStore) Option {
	return func(h *ResumeHandler) {
		h.published = p
	}
}

// WithPinger 健康检查中带上指定组件的状态
func WithPinger(name string, p Pinger) Option {
	return func(h *ResumeHandler) {
		if h.pingers == nil {
			h.pingers = make(map[string]Pinger)
		}
		h.pingers[name] = p
	}
}

// WithStorage 按已初始化的存储组件装配可选依赖
func WithStorage(s *storage.Storage) Option {
	return func(h *ResumeHandler) {
		if s == nil {
			return
		}
		if s.MySQL != nil {
			WithSnapshots(s.MySQL)(h)
		}
		if s.MinIO != nil {
			WithPublishedStore(s.MinIO)(h)
		}
		if s.Redis != nil {
			WithPinger("redis", s.Redis)(h)
		}
	}
}

// NewResumeHandler 创建一个新的简历处理器
func NewResumeHandler(cfg *config.Config, proc *processor.ResumeProcessor, logger zerolog.Logger, opts ...Option) *ResumeHandler {
	h := &ResumeHandler{
		cfg:       cfg,
		processor: proc,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health 健康检查，组件异常时仍返回200，只在 components 中标出
func (h *ResumeHandler) Health(c context.Context, ctx *app.RequestContext) {
	if len(h.pingers) == 0 {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
		return
	}

	status := "ok"
	components := make(map[string]string, len(h.pingers))
	for name, p := range h.pingers {
		pingCtx, cancel := context.WithTimeout(c, 2*time.Second)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": status, "components": components})
}

// GetResume 原样返回当前输出文件，前端导入的就是这份JSON
func (h *ResumeHandler) GetResume(c context.Context, ctx *app.RequestContext) {
	path := h.cfg.Resume.OutputPath
	data, err := storage.ReadRecordFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.getPublished(c, ctx)
			return
		}
		h.logger.Error().Err(err).Str("path", path).Msg("读取简历数据失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取简历数据失败"})
		return
	}
	ctx.Data(consts.StatusOK, jsonContentType, data)
}

// getPublished 本地没有输出文件时回退到对象存储
func (h *ResumeHandler) getPublished(c context.Context, ctx *app.RequestContext) {
	if h.published == nil {
		ctx.JSON(consts.StatusNotFound, utils.H{"error": "简历数据尚未生成"})
		return
	}
	data, err := h.published.DownloadPublished(c)
	if err != nil {
		h.logger.Warn().Err(err).Msg("从对象存储读取简历数据失败")
		ctx.JSON(consts.StatusNotFound, utils.H{"error": "简历数据尚未生成"})
		return
	}
	ctx.Header("X-Resume-Source", "object-storage")
	ctx.Data(consts.StatusOK, jsonContentType, data)
}

// PublishedURL 返回已发布JSON的临时下载地址
func (h *ResumeHandler) PublishedURL(c context.Context, ctx *app.RequestContext) {
	if h.published == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "未配置对象存储"})
		return
	}
	url, err := h.published.PresignPublished(c, presignExpiry)
	if err != nil {
		h.logger.Error().Err(err).Msg("生成下载地址失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusBadGateway)
		ctx.JSON(consts.StatusBadGateway, utils.H{"error": "生成下载地址失败"})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{
		"url":        url,
		"expires_in": int(presignExpiry.Seconds()),
	})
}

// History 最近的解析快照，limit 默认10，最大100
func (h *ResumeHandler) History(c context.Context, ctx *app.RequestContext) {
	if h.snapshots == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "未配置解析历史存储"})
		return
	}

	limit := defaultHistoryLimit
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": fmt.Sprintf("limit 必须是 1 到 %d 之间的整数", maxHistoryLimit)})
			return
		}
		limit = n
	}

	snapshots, err := h.snapshots.LatestSnapshots(c, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("查询解析历史失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询解析历史失败"})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{
		"total":     len(snapshots),
		"snapshots": snapshots,
	})
}

// ParseResume 解析上传的PDF并直接返回记录，不写输出文件也不发布
func (h *ResumeHandler) ParseResume(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}

	maxBytes := h.cfg.Server.MaxUploadBytes()
	if fileHeader.Size > maxBytes {
		tooLarge(c, ctx, maxBytes)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return
	}
	if int64(len(data)) > maxBytes {
		tooLarge(c, ctx, maxBytes)
		return
	}
	if len(data) == 0 {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件为空"})
		return
	}

	result, err := h.processor.ParseBytes(c, data, fileHeader.Filename)
	if err != nil {
		status := statusForError(err)
		h.logger.Warn().Err(err).Str("filename", fileHeader.Filename).Int("status", status).Msg("在线解析简历失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
		ctx.JSON(status, utils.H{"error": err.Error()})
		return
	}

	ctx.Header("X-Run-ID", result.Run.RunID)
	ctx.Header("X-Source-MD5", result.Run.SourceMD5)
	ctx.Header("X-Page-Count", strconv.Itoa(result.Run.PageCount))
	ctx.Data(consts.StatusOK, jsonContentType, result.Payload)
}

func tooLarge(c context.Context, ctx *app.RequestContext, maxBytes int64) {
	tracing.RecordHTTPError(trace.SpanFromContext(c), fmt.Errorf("上传文件超过 %d 字节", maxBytes), consts.StatusRequestEntityTooLarge)
	ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{
		"error":     "文件过大",
		"max_bytes": maxBytes,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return consts.StatusGatewayTimeout
	case errors.Is(err, processor.ErrExtractionFailed):
		return consts.StatusUnprocessableEntity
	default:
		return consts.StatusInternalServerError
	}
}
