package processor

import (
	"context"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/parser"
)

var (
	_ PDFExtractor = (*parser.EinoPDFTextExtractor)(nil)
	_ PDFExtractor = (*parser.TikaPDFExtractor)(nil)
	_ PDFExtractor = (*parser.NativePDFExtractor)(nil)
)

// BuildPDFExtractor 统一构建PDF解析器的逻辑
// 根据 pdf.type 返回合适的PDF解析器实现: tika 需要配置服务器地址，native 为纯Go实现，其余情况使用Eino
func BuildPDFExtractor(ctx context.Context, cfg *config.Config) (PDFExtractor, error) {
	initLogger := logger.Component("pdf_extractor_init")

	switch cfg.PDF.Type {
	case "tika":
		if cfg.Tika.ServerURL == "" {
			return nil, fmt.Errorf("pdf.type 为 tika 但未配置 tika.server_url")
		}
		initLogger.Info().Str("server", cfg.Tika.ServerURL).Msg("正在初始化Tika PDF解析器")
		tikaOptions := []parser.TikaOption{
			parser.WithMetadataMode(parser.MetadataMode(cfg.Tika.MetadataMode)),
			parser.WithAnnotations(cfg.Tika.Annotations),
			parser.WithTikaLogger(logger.Component("tika_pdf")),
		}
		if cfg.Tika.Timeout > 0 {
			tikaOptions = append(tikaOptions, parser.WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		return parser.NewTikaPDFExtractor(cfg.Tika.ServerURL, tikaOptions...), nil
	case "native":
		initLogger.Info().Msg("使用纯Go PDF解析器")
		return parser.NewNativePDFExtractor(logger.Component("native_pdf")), nil
	case "eino", "":
		initLogger.Info().Msg("使用Eino作为PDF解析器")
		return parser.NewEinoPDFTextExtractor(ctx,
			parser.WithEinoLogger(logger.Component("eino_pdf")),
			parser.WithEinoTimeout(time.Duration(cfg.PDF.TimeoutSeconds)*time.Second),
		)
	default:
		return nil, fmt.Errorf("未知的PDF解析器类型: %s", cfg.PDF.Type)
	}
}
