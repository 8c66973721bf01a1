package parser

import (
	"strings"

	"resume-parser-go/internal/types"
)

// NormalizeText 统一换行符，PDF提取结果可能混有 \r\n 和 \r
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// AssembleRecord 从原始文本组装完整的简历记录
// 纯函数：相同文本总是得到相同的记录，找不到的字段使用空值或占位值
func AssembleRecord(text string) *types.ResumeRecord {
	text = NormalizeText(text)
	record := types.NewResumeRecord()

	record.Name, record.Title = ExtractNameAndTitle(text)
	record.Contact = ExtractContact(text)

	sections := SegmentSections(text)
	if summary := sections[types.SectionSummary]; summary != "" {
		record.Summary = summary
	}
	record.Skills = ParseSkills(sections[types.SectionSkills])
	record.Experience = ParseExperience(sections[types.SectionExperience])
	record.Education = ParseEducation(sections[types.SectionEducation])
	record.Projects = ParseProjects(sections[types.SectionProjects])
	record.Certifications = ParseCertifications(sections[types.SectionCertifications])

	return record
}
