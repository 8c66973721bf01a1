package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-parser-go/internal/types"
)

// NativePDFExtractor 纯Go实现的PDF文本提取，不依赖外部服务
type NativePDFExtractor struct {
	logger zerolog.Logger
}

// NewNativePDFExtractor 创建纯Go PDF提取器
func NewNativePDFExtractor(logger zerolog.Logger) *NativePDFExtractor {
	return &NativePDFExtractor{logger: logger}
}

// ExtractFromBytes 逐页提取纯文本，页与页之间用换行连接
func (e *NativePDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PDF content: %s", uri)
	}
	startTime := time.Now()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", uri, err)
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug().Err(err).Int("page", i).Msg("跳过无法解析的页面")
			continue
		}
		pages = append(pages, text)
	}

	text := NormalizeText(strings.Join(pages, "\n"))
	return &types.Document{
		Text:      text,
		PageCount: numPages,
		Metadata: map[string]interface{}{
			"source_file_path":       uri,
			"extraction_time":        startTime.Format(time.RFC3339),
			"processing_duration_ms": time.Since(startTime).Milliseconds(),
			"text_length":            len(text),
			"extractor":              "native",
		},
	}, nil
}
