package processor

import (
	"context"

	"resume-parser-go/internal/types"
)

//
// PDF解析相关接口
//

// PDFExtractor PDF提取器接口
type PDFExtractor interface {
	// ExtractFromBytes 从字节数组提取文本、页数和元数据
	// 参数：
	// - ctx: 上下文，提取器需要遵守其取消和超时
	// - data: PDF文件内容
	// - uri: 资源标识符（用于日志或元数据）
	// 返回的文本已统一为 \n 换行
	ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.Document, error)
}

//
// 缓存相关接口
//

// TextCache 按源文件MD5缓存提取结果
// 实现方需要自行吞掉"未命中"，返回 (nil, nil)
type TextCache interface {
	GetDocument(ctx context.Context, md5 string) (*types.Document, error)
	SetDocument(ctx context.Context, md5 string, doc *types.Document) error
}

//
// 发布相关接口
//

// Publisher 在输出文件写入后接收解析结果
// 发布失败只记录警告，不影响本次解析
type Publisher interface {
	// Name 用于日志和统计
	Name() string
	Publish(ctx context.Context, run *types.ParseRun, record *types.ResumeRecord, payload []byte) error
}
