package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"

	// EntityText 文本实体
	EntityText = "text"
	// EntityLatest 最近一次解析结果
	EntityLatest = "latest"

	// KeyResumeText 已提取的PDF文本缓存 (STRING, JSON)
	// 格式: app:resume:text:{md5}
	KeyResumeText = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityText + ":%s"
)
