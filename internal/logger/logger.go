package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"resume-parser-go/internal/constants"
)

// Logger 进程级日志实例，Init 之前为 zerolog 默认实例
var Logger = log.Logger

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format       string `json:"format" yaml:"format"` // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"`
}

// Init 按配置重建全局日志
// 输出固定为标准错误，标准输出只给 --print 和 --dump-text 使用
func Init(cfg Config) {
	Logger = New(cfg, os.Stderr)
	log.Logger = Logger
}

// New 构建写到 w 的日志实例，级别解析失败时回退到 info
func New(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	out := w
	if cfg.Format == "pretty" || cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}

	zc := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", constants.ServiceName)
	if cfg.ReportCaller {
		zc = zc.Caller()
	}
	return zc.Logger()
}

// Component 带 component 字段的子日志
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
