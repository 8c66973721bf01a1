package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

func TestIsDateLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"2020 - Present", true},
		{"Jan 2019 – Dec 2020", true},
		{"March 2018 — Current", true},
		{"2020", false},              // 缺少分隔符
		{"Senior - Engineer", false}, // 缺少日期关键字
		{"• Led market-facing launch", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isDateLine(c.line, experienceDateTokens), "行: %q", c.line)
	}

	assert.True(t, isDateLine("Expected - 2026", educationDateTokens))
	assert.False(t, isDateLine("Jan - Mar", educationDateTokens), "教育经历不识别月份")
}

func TestParseExperience(t *testing.T) {
	t.Run("日期行开头的一组", func(t *testing.T) {
		entries := ParseExperience("2020 - Present\nSenior Engineer\nAcme Corp\n• Led migration")
		require.Len(t, entries, 1)
		assert.Equal(t, types.ExperienceEntry{
			Title:       "Senior Engineer",
			Company:     "Acme Corp",
			Period:      "2020 - Present",
			Description: "• Led migration",
			Highlights:  []string{"• Led migration"},
		}, entries[0])
	})

	t.Run("日期行之前的内容被丢弃", func(t *testing.T) {
		entries := ParseExperience("Senior Engineer\nAcme Corp\n2020 - Present\n• Led migration\n• Reduced latency")
		require.Len(t, entries, 1)
		assert.Equal(t, "2020 - Present", entries[0].Period)
		assert.Equal(t, "• Led migration", entries[0].Title, "位置规则：日期行后的第一行就是职位")
		assert.Equal(t, "• Reduced latency", entries[0].Company)
		assert.Empty(t, entries[0].Description)
		assert.Empty(t, entries[0].Highlights)
	})

	t.Run("与职位相同的行进入描述", func(t *testing.T) {
		entries := ParseExperience("2020 - 2021\nEngineer\nEngineer\nInitech\nwrote code\n- on call")
		require.Len(t, entries, 1)
		assert.Equal(t, "Engineer", entries[0].Title)
		assert.Equal(t, "Initech", entries[0].Company)
		assert.Equal(t, "Engineer wrote code - on call", entries[0].Description)
		assert.Equal(t, []string{"- on call"}, entries[0].Highlights)
	})

	t.Run("多条记录保持顺序", func(t *testing.T) {
		entries := ParseExperience("Jan 2021 – Present\nLead\nA\n\n  2019 - 2020  \nDev\nB\nextra")
		require.Len(t, entries, 2)
		assert.Equal(t, "Jan 2021 – Present", entries[0].Period)
		assert.Equal(t, "A", entries[0].Company)
		assert.Equal(t, "2019 - 2020", entries[1].Period, "日期行需要去掉首尾空白")
		assert.Equal(t, "extra", entries[1].Description)
	})

	t.Run("空输入", func(t *testing.T) {
		entries := ParseExperience("")
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
		assert.Empty(t, ParseExperience("no dates at all\njust lines"))
	})
}

func TestParseEducation(t *testing.T) {
	entries := ParseEducation("2010 - 2014\nBSc\nBSc\nMIT\nGPA 3.9\n2018 — 2020\nMSc\nETH Zurich")
	require.Len(t, entries, 2)
	assert.Equal(t, types.EducationEntry{Degree: "BSc", Institution: "MIT", Period: "2010 - 2014"}, entries[0])
	assert.Equal(t, types.EducationEntry{Degree: "MSc", Institution: "ETH Zurich", Period: "2018 — 2020"}, entries[1])

	single := ParseEducation("Expected - 2026\nPhD")
	require.Len(t, single, 1)
	assert.Equal(t, "PhD", single[0].Degree)
	assert.Empty(t, single[0].Institution)

	assert.NotNil(t, ParseEducation(""))
	assert.Empty(t, ParseEducation(""))
}
