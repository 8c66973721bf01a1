package parser

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

// 日期行识别：包含年份/月份/哨兵词，并且包含连字符或长破折号
var (
	experienceDateTokens = regexp.MustCompile(`(?i)\d{4}|Present|Current|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`)
	educationDateTokens  = regexp.MustCompile(`(?i)\d{4}|Present|Expected`)
)

const dashChars = "-–—"

// isDateLine 判断一行是否是新记录的起始日期行
func isDateLine(line string, tokens *regexp.Regexp) bool {
	return tokens.MatchString(line) && strings.ContainsAny(line, dashChars)
}

// isHighlight 以项目符号或连字符开头的描述行
func isHighlight(line string) bool {
	return strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-")
}

// experienceState 单条工作经历内部的位置状态
type experienceState int

const (
	// AwaitingTitle 刚读到日期行，下一行是职位
	AwaitingTitle experienceState = iota
	// AwaitingCompany 已有职位，下一行（与职位不同）是公司
	AwaitingCompany
	// AccumulatingDescription 其余行全部进入描述
	AccumulatingDescription
)

type experienceBuilder struct {
	entry       types.ExperienceEntry
	state       experienceState
	description []string
}

func newExperienceBuilder(period string) *experienceBuilder {
	return &experienceBuilder{
		entry: types.ExperienceEntry{Period: period, Highlights: []string{}},
		state: AwaitingTitle,
	}
}

func (b *experienceBuilder) feed(line string) {
	switch b.state {
	case AwaitingTitle:
		b.entry.Title = line
		b.state = AwaitingCompany
	case AwaitingCompany:
		if line == b.entry.Title {
			// 与职位重复的行算作描述，公司仍然空缺
			b.description = append(b.description, line)
			return
		}
		b.entry.Company = line
		b.state = AccumulatingDescription
	default:
		b.description = append(b.description, line)
	}
}

func (b *experienceBuilder) build() types.ExperienceEntry {
	b.entry.Description = strings.Join(b.description, " ")
	for _, d := range b.description {
		if isHighlight(d) {
			b.entry.Highlights = append(b.entry.Highlights, d)
		}
	}
	return b.entry
}

// ParseExperience 以日期行为边界把工作经历切成多条记录
// 第一个日期行之前的内容被丢弃
func ParseExperience(text string) []types.ExperienceEntry {
	entries := []types.ExperienceEntry{}
	var current *experienceBuilder

	for _, line := range nonBlankLines(text) {
		if isDateLine(line, experienceDateTokens) {
			if current != nil {
				entries = append(entries, current.build())
			}
			current = newExperienceBuilder(line)
			continue
		}
		if current != nil {
			current.feed(line)
		}
	}
	if current != nil {
		entries = append(entries, current.build())
	}
	return entries
}

// educationState 单条教育经历内部的位置状态
type educationState int

const (
	// AwaitingDegree 下一行是学位
	AwaitingDegree educationState = iota
	// AwaitingInstitution 下一行（与学位不同）是学校
	AwaitingInstitution
	// Discarding 其余行忽略
	Discarding
)

// ParseEducation 与工作经历相同的日期行分组，只保留学位和学校两个位置字段
func ParseEducation(text string) []types.EducationEntry {
	entries := []types.EducationEntry{}
	var current *types.EducationEntry
	state := AwaitingDegree

	for _, line := range nonBlankLines(text) {
		if isDateLine(line, educationDateTokens) {
			if current != nil {
				entries = append(entries, *current)
			}
			current = &types.EducationEntry{Period: line}
			state = AwaitingDegree
			continue
		}
		if current == nil {
			continue
		}
		switch state {
		case AwaitingDegree:
			current.Degree = line
			state = AwaitingInstitution
		case AwaitingInstitution:
			if line != current.Degree {
				current.Institution = line
				state = Discarding
			}
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}
