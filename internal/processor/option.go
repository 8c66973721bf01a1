package processor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/storage"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithPDFExtractor 设置PDF提取器组件
func WithPDFExtractor(extractor PDFExtractor) ComponentOpt {
	return func(c *Components) {
		c.PDFExtractor = extractor
	}
}

// WithTextCache 设置提取文本缓存
func WithTextCache(cache TextCache) ComponentOpt {
	return func(c *Components) {
		c.TextCache = cache
	}
}

// WithPublishers 追加发布器，按传入顺序调用
func WithPublishers(publishers ...Publisher) ComponentOpt {
	return func(c *Components) {
		for _, p := range publishers {
			if p != nil {
				c.Publishers = append(c.Publishers, p)
			}
		}
	}
}

// ----- 设置选项 -----

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithValidation 设置是否进行结构校验
func WithValidation(enabled bool) SettingOpt {
	return func(s *Settings) {
		s.Validate = enabled
	}
}

// WithExtractTimeout 设置单次提取的超时时间，0 表示只依赖调用方的上下文
func WithExtractTimeout(timeout time.Duration) SettingOpt {
	return func(s *Settings) {
		s.ExtractTimeout = timeout
	}
}

// WithClock 替换时间来源，测试中用于固定 ParsedAt
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) {
		if now != nil {
			s.Now = now
		}
	}
}

// WithStorage 从存储管理器装配缓存和发布器，未初始化的组件被跳过
func WithStorage(s *storage.Storage) ComponentOpt {
	return func(c *Components) {
		if s == nil {
			return
		}
		if s.Redis != nil {
			c.TextCache = s.Redis
		}
		for _, p := range s.Publishers() {
			c.Publishers = append(c.Publishers, p)
		}
	}
}
