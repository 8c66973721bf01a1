package parser

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

// SectionSpec 描述一个章节的标题同义词以及可能紧随其后的章节标题
type SectionSpec struct {
	Type     types.SectionType
	Headings []string
	Next     []string // 为空表示一直截取到文本末尾
}

// DefaultSectionSpecs 固定优先级的章节定义，每个章节只取标题的第一次出现
var DefaultSectionSpecs = []SectionSpec{
	{
		Type:     types.SectionSummary,
		Headings: []string{"Summary", "Profile", "About", "Objective"},
		Next:     []string{"Skills", "Experience", "Education"},
	},
	{
		Type:     types.SectionSkills,
		Headings: []string{"Skills", "Technical Skills", "Competencies"},
		Next:     []string{"Experience", "Education", "Projects"},
	},
	{
		Type:     types.SectionExperience,
		Headings: []string{"Experience", "Work Experience", "Employment"},
		Next:     []string{"Education", "Projects", "Skills"},
	},
	{
		Type:     types.SectionEducation,
		Headings: []string{"Education"},
		Next:     []string{"Experience", "Projects", "Skills", "Certifications"},
	},
	{
		Type:     types.SectionProjects,
		Headings: []string{"Projects"},
		Next:     []string{"Education", "Experience", "Certifications", "Skills"},
	},
	{
		Type:     types.SectionCertifications,
		Headings: []string{"Certifications", "Certificates", "Achievements"},
	},
}

// alternation 把同义词编译成大小写不敏感的分支表达式
func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return "(?i)(?:" + strings.Join(quoted, "|") + ")"
}

// ExtractSection 截取标题之后到下一个章节标题之前的文本
//
// 标题匹配第一次出现即生效，后面的冒号和空白会被跳过。找不到 next 中的任何标题时截取到文本末尾。
// 标题本身不存在时返回空字符串。
func ExtractSection(text string, headings, next []string) string {
	if text == "" || len(headings) == 0 {
		return ""
	}

	headingRe := regexp.MustCompile(alternation(headings) + `[:\s]*`)
	loc := headingRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	body := text[loc[1]:]

	if len(next) > 0 {
		nextRe := regexp.MustCompile(alternation(next))
		if end := nextRe.FindStringIndex(body); end != nil {
			body = body[:end[0]]
		}
	}
	return strings.TrimSpace(body)
}

// SegmentSections 按 DefaultSectionSpecs 切出全部章节，缺失的章节对应空字符串
func SegmentSections(text string) map[types.SectionType]string {
	return SegmentSectionsWith(text, DefaultSectionSpecs)
}

// SegmentSectionsWith 使用自定义的章节定义切分
func SegmentSectionsWith(text string, specs []SectionSpec) map[types.SectionType]string {
	sections := make(map[types.SectionType]string, len(specs))
	for _, spec := range specs {
		sections[spec.Type] = ExtractSection(text, spec.Headings, spec.Next)
	}
	return sections
}
