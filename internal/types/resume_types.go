package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// 解析不到内容时使用的占位值
const (
	DefaultName    = "Your Name"
	DefaultTitle   = "Your Title"
	DefaultSummary = "Professional summary will appear here."
)

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionSummary 个人简介
	SectionSummary SectionType = "summary"
	// SectionSkills 技能
	SectionSkills SectionType = "skills"
	// SectionExperience 工作经历
	SectionExperience SectionType = "experience"
	// SectionEducation 教育经历
	SectionEducation SectionType = "education"
	// SectionProjects 项目经历
	SectionProjects SectionType = "projects"
	// SectionCertifications 证书
	SectionCertifications SectionType = "certifications"
)

// Contact 联系方式，每个字段未找到时为空字符串
type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Period      string   `json:"period"` // 原始日期行，不拆分起止时间
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Period      string `json:"period"`
}

// ProjectEntry 一个项目
type ProjectEntry struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link"`
}

// CertificationEntry 一条证书记录
type CertificationEntry struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// ResumeRecord 简历解析的最终产物，前端在构建时直接导入该JSON
type ResumeRecord struct {
	Name           string               `json:"name"`
	Title          string               `json:"title"`
	Contact        Contact              `json:"contact"`
	Summary        string               `json:"summary"`
	Skills         []string             `json:"skills"`
	Experience     []ExperienceEntry    `json:"experience"`
	Education      []EducationEntry     `json:"education"`
	Projects       []ProjectEntry       `json:"projects"`
	Certifications []CertificationEntry `json:"certifications"`
}

// NewResumeRecord 返回所有列表字段都已初始化的空记录
func NewResumeRecord() *ResumeRecord {
	return &ResumeRecord{
		Name:           DefaultName,
		Title:          DefaultTitle,
		Summary:        DefaultSummary,
		Skills:         []string{},
		Experience:     []ExperienceEntry{},
		Education:      []EducationEntry{},
		Projects:       []ProjectEntry{},
		Certifications: []CertificationEntry{},
	}
}

// SectionCounts 各列表字段的条目数
type SectionCounts struct {
	Skills         int `json:"skills"`
	Experience     int `json:"experience"`
	Education      int `json:"education"`
	Projects       int `json:"projects"`
	Certifications int `json:"certifications"`
}

// Counts 返回各章节条目数，用于命令行摘要和事件消息
func (r *ResumeRecord) Counts() SectionCounts {
	return SectionCounts{
		Skills:         len(r.Skills),
		Experience:     len(r.Experience),
		Education:      len(r.Education),
		Projects:       len(r.Projects),
		Certifications: len(r.Certifications),
	}
}

// MarshalRecord 序列化为2空格缩进的JSON，不转义HTML字符
func MarshalRecord(r *ResumeRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	// Encoder 会在末尾追加换行
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Document PDF提取结果
type Document struct {
	Text      string                 `json:"text"`
	PageCount int                    `json:"page_count"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ParseRun 一次解析运行的元信息，交给各发布端使用
type ParseRun struct {
	RunID      string    `json:"run_id"`
	SourcePath string    `json:"source_path"`
	SourceMD5  string    `json:"source_md5"`
	OutputPath string    `json:"output_path"`
	PageCount  int       `json:"page_count"`
	ParsedAt   time.Time `json:"parsed_at"`
}

// ResumeParsedEvent 解析完成后发布到消息队列的事件
type ResumeParsedEvent struct {
	RunID      string        `json:"run_id"`
	OutputPath string        `json:"output_path"`
	SourceMD5  string        `json:"source_md5"`
	PageCount  int           `json:"page_count"`
	Name       string        `json:"name"`
	Counts     SectionCounts `json:"counts"`
	ParsedAt   time.Time     `json:"parsed_at"`
}
