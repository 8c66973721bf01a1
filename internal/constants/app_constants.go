package constants

import "time"

const (
	// ServiceName 链路追踪与日志中的服务名
	ServiceName = "resume-parser"

	// 默认输入输出位置，相对于工作目录
	DefaultInputPath  = "My Resume.pdf"
	DefaultOutputPath = "src/data/resume.json"

	// ParsedRoutingKey 解析完成事件的路由键
	ParsedRoutingKey = "resume.parsed"

	// DefaultTextCacheTTL 提取文本缓存有效期
	DefaultTextCacheTTL = 7 * 24 * time.Hour

	// OutputFileMode 输出文件权限
	OutputFileMode = 0644
)
