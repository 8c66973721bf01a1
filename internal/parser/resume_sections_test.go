package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

func TestExtractSection(t *testing.T) {
	summaryHeadings := []string{"Summary", "Profile", "About", "Objective"}
	summaryNext := []string{"Skills", "Experience", "Education"}

	t.Run("标题后跟冒号", func(t *testing.T) {
		got := ExtractSection("Jane\nSummary: hello world\nSkills\nGo", summaryHeadings, summaryNext)
		assert.Equal(t, "hello world", got)
	})

	t.Run("大小写不敏感", func(t *testing.T) {
		got := ExtractSection("SKILLS:\n  Go, Rust\nEXPERIENCE\n2020 - 2021",
			[]string{"Skills", "Technical Skills", "Competencies"},
			[]string{"Experience", "Education", "Projects"})
		assert.Equal(t, "Go, Rust", got)
	})

	t.Run("标题不存在返回空", func(t *testing.T) {
		assert.Empty(t, ExtractSection("Jane\nSkills\nGo", summaryHeadings, summaryNext))
	})

	t.Run("没有下一个标题时截取到末尾", func(t *testing.T) {
		got := ExtractSection("Summary\nbuilds things\nships them", summaryHeadings, summaryNext)
		assert.Equal(t, "builds things\nships them", got)

		got = ExtractSection("Certifications\nCKA - CNCF - 2022\n", []string{"Certifications"}, nil)
		assert.Equal(t, "CKA - CNCF - 2022", got)
	})

	t.Run("正文中的关键字会提前截断", func(t *testing.T) {
		got := ExtractSection("Summary\nI have experience with Go\nExperience\n2020 - 2021", summaryHeadings, summaryNext)
		assert.Equal(t, "I have", got, "第一次出现的关键字即为边界")
	})

	t.Run("标题中的正则元字符按字面匹配", func(t *testing.T) {
		got := ExtractSection("C++ (Core)\nstl\nDone", []string{"C++ (Core)"}, []string{"Done"})
		assert.Equal(t, "stl", got)
	})
}

func TestSegmentSections(t *testing.T) {
	text := "Jane\nDev\nProfile\nbuilder\nSkills\nGo\nProjects\nAlpha\nCertificates\nCKA - CNCF - 2022"
	sections := SegmentSections(text)

	require.Len(t, sections, len(DefaultSectionSpecs), "每个章节类型都应有结果")
	assert.Equal(t, "builder", sections[types.SectionSummary])
	assert.Equal(t, "Go", sections[types.SectionSkills])
	assert.Equal(t, "Alpha\nCertificates\nCKA - CNCF - 2022", sections[types.SectionProjects], "Projects 的边界不包含 Certificates")
	assert.Equal(t, "CKA - CNCF - 2022", sections[types.SectionCertifications])
	assert.Empty(t, sections[types.SectionExperience])
	assert.Empty(t, sections[types.SectionEducation])
}
