package processor // 简历解析流水线: 加载 → 组装 → 校验 → 写入 → 发布

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

var tracer = otel.Tracer("resume-parser/processor")

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	PDFExtractor PDFExtractor // PDF文本提取接口
	TextCache    TextCache    // 可选，提取文本缓存
	Publishers   []Publisher  // 可选，写入后的发布器
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	Logger         zerolog.Logger
	Validate       bool
	ExtractTimeout time.Duration
	Now            func() time.Time
}

// ResumeProcessor 简历处理器
type ResumeProcessor struct {
	Components
	settings Settings
	schema   *jsonschema.Schema
}

// ProcessOptions 单次解析的输入输出
type ProcessOptions struct {
	InputFile  string
	OutputFile string
	// DryRun 为 true 时只解析和校验，不写文件也不发布
	DryRun bool
}

// ProcessStats 各阶段耗时与非致命问题
type ProcessStats struct {
	LoadDuration     time.Duration
	AssembleDuration time.Duration
	ValidateDuration time.Duration
	WriteDuration    time.Duration
	PublishDuration  time.Duration
	CacheHit         bool
	// PublishErrors 发布器名称 → 错误信息
	PublishErrors map[string]string
}

// ProcessResult 处理结果
type ProcessResult struct {
	Run      *types.ParseRun
	Document *types.Document
	Record   *types.ResumeRecord
	// Payload 写入（或将要写入）输出文件的字节
	Payload []byte
	Stats   ProcessStats
}

// DefaultSettings 默认设置: 开启校验，不记录日志
func DefaultSettings() *Settings {
	return &Settings{
		Logger:   zerolog.Nop(),
		Validate: true,
		Now:      time.Now,
	}
}

// NewResumeProcessor 创建新的简历处理器，使用明确分离的组件和设置
func NewResumeProcessor(comp *Components, set *Settings, opts ...SettingOpt) (*ResumeProcessor, error) {
	if comp == nil || comp.PDFExtractor == nil {
		return nil, fmt.Errorf("PDF提取器不能为空")
	}
	if set == nil {
		set = DefaultSettings()
	}
	for _, opt := range opts {
		opt(set)
	}
	if set.Now == nil {
		set.Now = time.Now
	}

	schema, err := compileSchema(BuildResumeJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("初始化结构校验失败: %w", err)
	}

	return &ResumeProcessor{
		Components: *comp,
		settings:   *set,
		schema:     schema,
	}, nil
}

// CreateProcessor 使用选项创建处理器的辅助函数
func CreateProcessor(compOpts []ComponentOpt, setOpts []SettingOpt) (*ResumeProcessor, error) {
	comp := &Components{}
	for _, opt := range compOpts {
		opt(comp)
	}
	return NewResumeProcessor(comp, DefaultSettings(), setOpts...)
}

// CreateProcessorFromConfig 从配置创建处理器，PDF提取器按 pdf.type 选择
func CreateProcessorFromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger, compOpts ...ComponentOpt) (*ResumeProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	extractor, err := BuildPDFExtractor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化PDF提取器失败: %w", err)
	}
	opts := append([]ComponentOpt{WithPDFExtractor(extractor)}, compOpts...)
	return CreateProcessor(opts, []SettingOpt{
		WithLogger(log),
		WithExtractTimeout(time.Duration(cfg.PDF.TimeoutSeconds) * time.Second),
	})
}

// LoadDocument 读取PDF并提取文本
// 文件不存在返回 ErrResumeNotFound，提取失败返回 ErrExtractionFailed，均不重试
func (rp *ResumeProcessor) LoadDocument(ctx context.Context, path string) (*types.Document, string, error) {
	doc, md5sum, _, err := rp.loadDocument(ctx, path)
	return doc, md5sum, err
}

func (rp *ResumeProcessor) loadDocument(ctx context.Context, path string) (*types.Document, string, bool, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.load", trace.WithAttributes(attribute.String("resume.path", tracing.SafePath(path))))
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = NewNotFoundError(path, err)
			tracing.RecordError(span, err, tracing.ErrorTypeNotFound)
			return nil, "", false, err
		}
		err = NewExtractionError(path, err)
		tracing.RecordError(span, err, tracing.ErrorTypeFile)
		return nil, "", false, err
	}
	return rp.extract(ctx, data, path)
}

// extract 先查缓存，未命中再调用提取器；缓存读写失败只记录日志
func (rp *ResumeProcessor) extract(ctx context.Context, data []byte, uri string) (*types.Document, string, bool, error) {
	log := rp.settings.Logger
	sum := md5.Sum(data)
	md5sum := hex.EncodeToString(sum[:])

	if rp.TextCache != nil {
		doc, err := rp.TextCache.GetDocument(ctx, md5sum)
		if err != nil {
			log.Warn().Err(err).Str("md5", md5sum).Msg("读取文本缓存失败，继续提取")
		} else if doc != nil {
			log.Debug().Str("md5", md5sum).Msg("文本缓存命中")
			return doc, md5sum, true, nil
		}
	}

	ctx, span := tracer.Start(ctx, "ResumeProcessor.extract")
	defer span.End()

	if rp.settings.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rp.settings.ExtractTimeout)
		defer cancel()
	}

	doc, err := rp.PDFExtractor.ExtractFromBytes(ctx, data, uri)
	if err != nil {
		err = NewExtractionError(uri, err)
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return nil, md5sum, false, err
	}
	doc.Text = parser.NormalizeText(doc.Text)
	span.SetAttributes(attribute.Int("resume.pages", doc.PageCount), attribute.Int("resume.chars", len(doc.Text)))

	if rp.TextCache != nil {
		if err := rp.TextCache.SetDocument(ctx, md5sum, doc); err != nil {
			log.Warn().Err(err).Str("md5", md5sum).Msg("写入文本缓存失败")
		}
	}
	return doc, md5sum, false, nil
}

// build 组装记录、序列化并校验
func (rp *ResumeProcessor) build(ctx context.Context, doc *types.Document, uri string, stats *ProcessStats) (*types.ResumeRecord, []byte, error) {
	_, span := tracer.Start(ctx, "ResumeProcessor.assemble")
	start := time.Now()
	record := parser.AssembleRecord(doc.Text)
	payload, err := types.MarshalRecord(record)
	stats.AssembleDuration = time.Since(start)
	if err != nil {
		err = NewValidationError(uri, err)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		span.End()
		return nil, nil, err
	}
	span.End()

	if !rp.settings.Validate {
		return record, payload, nil
	}

	_, span = tracer.Start(ctx, "ResumeProcessor.validate")
	defer span.End()
	start = time.Now()
	err = validatePayload(rp.schema, payload)
	stats.ValidateDuration = time.Since(start)
	if err != nil {
		err = NewValidationError(uri, err)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, nil, err
	}
	return record, payload, nil
}

// ParseBytes 解析内存中的PDF，不读写文件也不发布
func (rp *ResumeProcessor) ParseBytes(ctx context.Context, data []byte, uri string) (*ProcessResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.ParseBytes")
	defer span.End()

	run := &types.ParseRun{RunID: uuid.NewString(), SourcePath: uri, ParsedAt: rp.settings.Now().UTC()}
	result := &ProcessResult{Run: run}

	start := time.Now()
	doc, md5sum, hit, err := rp.extract(ctx, data, uri)
	result.Stats.LoadDuration = time.Since(start)
	if err != nil {
		return nil, err
	}
	result.Stats.CacheHit = hit
	run.SourceMD5 = md5sum
	run.PageCount = doc.PageCount
	result.Document = doc

	result.Record, result.Payload, err = rp.build(ctx, doc, uri, &result.Stats)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Process 执行完整流水线
// 致命错误发生时不会写入或修改输出文件；发布失败只记录在 Stats.PublishErrors 中
func (rp *ResumeProcessor) Process(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	log := rp.settings.Logger
	run := &types.ParseRun{
		RunID:      uuid.NewString(),
		SourcePath: opts.InputFile,
		OutputPath: opts.OutputFile,
		ParsedAt:   rp.settings.Now().UTC(),
	}
	ctx, span := tracer.Start(ctx, "ResumeProcessor.Process", trace.WithAttributes(
		attribute.String("resume.run_id", run.RunID),
		attribute.Bool("resume.dry_run", opts.DryRun),
	))
	defer span.End()

	log = log.With().Str("run_id", run.RunID).Logger()
	log.Info().Str("input", opts.InputFile).Msg("开始解析简历")

	result := &ProcessResult{Run: run}

	start := time.Now()
	doc, md5sum, hit, err := rp.loadDocument(ctx, opts.InputFile)
	result.Stats.LoadDuration = time.Since(start)
	if err != nil {
		tracing.RecordError(span, err, traceErrorType(err))
		return nil, err
	}
	result.Stats.CacheHit = hit
	run.SourceMD5 = md5sum
	run.PageCount = doc.PageCount
	result.Document = doc
	log.Debug().Int("pages", doc.PageCount).Int("chars", len(doc.Text)).Bool("cache_hit", hit).Msg("文本提取完成")

	result.Record, result.Payload, err = rp.build(ctx, doc, opts.InputFile, &result.Stats)
	if err != nil {
		tracing.RecordError(span, err, traceErrorType(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("resume.name", tracing.SafeAttributeValue("resume.name", result.Record.Name, tracing.DefaultMaxLength)),
		attribute.Int("resume.skills", len(result.Record.Skills)),
	)

	if opts.DryRun {
		log.Info().Msg("dry-run 模式，跳过写入和发布")
		return result, nil
	}

	if err := rp.write(ctx, opts.OutputFile, result); err != nil {
		tracing.RecordError(span, err, traceErrorType(err))
		return nil, err
	}
	log.Info().Str("output", opts.OutputFile).Msg("简历JSON已写入")

	rp.publish(ctx, log, result)
	return result, nil
}

func (rp *ResumeProcessor) write(ctx context.Context, path string, result *ProcessResult) error {
	_, span := tracer.Start(ctx, "ResumeProcessor.write", trace.WithAttributes(attribute.String("resume.output", tracing.SafePath(path))))
	defer span.End()

	start := time.Now()
	err := storage.WriteRecordFile(path, result.Payload)
	result.Stats.WriteDuration = time.Since(start)
	if err != nil {
		err = NewWriteError(path, err)
		tracing.RecordError(span, err, tracing.ErrorTypeFile)
		return err
	}
	return nil
}

// publish 依次调用所有发布器，单个失败不影响其他发布器
func (rp *ResumeProcessor) publish(ctx context.Context, log zerolog.Logger, result *ProcessResult) {
	if len(rp.Publishers) == 0 {
		return
	}
	ctx, span := tracer.Start(ctx, "ResumeProcessor.publish")
	defer span.End()

	start := time.Now()
	for _, p := range rp.Publishers {
		if err := p.Publish(ctx, result.Run, result.Record, result.Payload); err != nil {
			err = NewPublishError(p.Name(), err)
			if result.Stats.PublishErrors == nil {
				result.Stats.PublishErrors = make(map[string]string)
			}
			result.Stats.PublishErrors[p.Name()] = err.Error()
			tracing.RecordPublishFailure(span, p.Name(), err)
			log.Warn().Err(err).Str("publisher", p.Name()).Msg("发布解析结果失败")
			continue
		}
		log.Debug().Str("publisher", p.Name()).Msg("发布完成")
	}
	result.Stats.PublishDuration = time.Since(start)
}
