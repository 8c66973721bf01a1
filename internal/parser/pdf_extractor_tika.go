package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/types"
)

// MetadataMode Tika元数据保留策略
type MetadataMode string

const (
	MetadataFull    MetadataMode = "full"
	MetadataMinimal MetadataMode = "minimal"
	MetadataNone    MetadataMode = "none"
)

// TikaPDFExtractor 是基于Apache Tika的PDF解析器
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client

	metadataMode MetadataMode
	// 是否提取链接注释文本
	extractAnnotations bool
	logger             zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithMetadataMode 配置保留哪些Tika元数据，未知值按 minimal 处理
func WithMetadataMode(mode MetadataMode) TikaOption {
	return func(e *TikaPDFExtractor) {
		switch mode {
		case MetadataFull, MetadataNone:
			e.metadataMode = mode
		default:
			e.metadataMode = MetadataMinimal
		}
	}
}

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(logger zerolog.Logger) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.logger = logger
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.Client.Timeout = timeout
	}
}

// NewTikaPDFExtractor 创建一个新的Tika PDF解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	extractor := &TikaPDFExtractor{
		ServerURL:          serverURL,
		Client:             &http.Client{Timeout: 60 * time.Second},
		metadataMode:       MetadataMinimal,
		extractAnnotations: true,
		logger:             zerolog.Nop(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractFromBytes 调用 /tika 获取纯文本，调用 /meta 获取页数和元数据
// 元数据请求失败不影响文本结果，此时页数为0
func (e *TikaPDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.Document, error) {
	startTime := time.Now()

	text, err := e.extractText(ctx, data, uri)
	if err != nil {
		return nil, err
	}
	text = NormalizeText(text)

	metadata := map[string]interface{}{
		"extraction_time":  startTime.Format(time.RFC3339),
		"source_file_path": uri,
		"text_length":      len(text),
		"extractor":        "tika",
	}

	pageCount := 0
	rawMetadata, err := e.extractMetadata(ctx, data, uri)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Msg("元数据提取失败, 页数未知")
	} else {
		pageCount = pageCountFromMetadata(rawMetadata)
		for k, v := range rawMetadata {
			if e.metadataMode == MetadataFull || (e.metadataMode == MetadataMinimal && isImportantMetadata(k)) {
				metadata[k] = v
			}
		}
	}
	metadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	e.logger.Debug().Int("pages", pageCount).Int("chars", len(text)).Msg("Tika提取完成")
	return &types.Document{Text: text, PageCount: pageCount, Metadata: metadata}, nil
}

func (e *TikaPDFExtractor) newRequest(ctx context.Context, path string, data []byte, uri string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	return req, nil
}

func (e *TikaPDFExtractor) do(req *http.Request) ([]byte, error) {
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tika服务器返回错误状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}

func (e *TikaPDFExtractor) extractText(ctx context.Context, data []byte, uri string) (string, error) {
	req, err := e.newRequest(ctx, "/tika", data, uri)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain; charset=utf-8")
	req.Header.Set("Accept-Charset", "utf-8")
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	body, err := e.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractMetadata 提取文档元数据
func (e *TikaPDFExtractor) extractMetadata(ctx context.Context, data []byte, uri string) (map[string]interface{}, error) {
	req, err := e.newRequest(ctx, "/meta", data, uri)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := e.do(req)
	if err != nil {
		return nil, err
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

// pageCountFromMetadata 依次尝试 xmpTPg:NPages 和 pdf:pageCount
// Tika 不同版本会返回数字、数字字符串或单元素数组
func pageCountFromMetadata(metadata map[string]interface{}) int {
	for _, key := range []string{"xmpTPg:NPages", "pdf:pageCount"} {
		if n, ok := toInt(metadata[key]); ok {
			return n
		}
	}
	return 0
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		return n, err == nil
	case []interface{}:
		if len(val) > 0 {
			return toInt(val[0])
		}
	}
	return 0, false
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"pdf:PDFVersion":      true,
		"xmpTPg:NPages":       true,
		"dcterms:created":     true,
		"language":            true,
		"dc:title":            true,
		"Content-Type":        true,
		"pdf:docinfo:title":   true,
		"pdf:docinfo:created": true,
	}
	return importantKeys[key]
}
