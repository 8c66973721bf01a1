package parser

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

// 联系方式识别模式，作用于整份文本而不是某个章节
var (
	emailPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedInPattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[\w-]+`)
	gitHubPattern   = regexp.MustCompile(`(?i)(https?://)?(www\.)?github\.com/[\w-]+`)
	locationPattern = regexp.MustCompile(`([A-Z][a-z]+(?:\s[A-Z][a-z]+)*),\s*([A-Z]{2,}|[A-Z][a-z]+)`)
)

// ExtractEmail 返回第一个邮箱地址，没有则为空字符串
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone 返回第一个电话号码（可选国家码、可选括号区号、3-3-4分组）
func ExtractPhone(text string) string {
	return phonePattern.FindString(text)
}

// ExtractLinkedIn 返回第一个 linkedin.com/in/<handle> 链接，大小写不敏感
func ExtractLinkedIn(text string) string {
	return linkedInPattern.FindString(text)
}

// ExtractGitHub 返回第一个 github.com/<handle> 链接，大小写不敏感
func ExtractGitHub(text string) string {
	return gitHubPattern.FindString(text)
}

// ExtractLocation 返回第一个 "City, ST" 或 "City, Country" 形式的片段
// 注意 \s 可以跨行，紧挨在前面的大写单词行也会被并入结果
func ExtractLocation(text string) string {
	return locationPattern.FindString(text)
}

// ExtractContact 汇总所有联系方式字段
func ExtractContact(text string) types.Contact {
	return types.Contact{
		Email:    ExtractEmail(text),
		Phone:    ExtractPhone(text),
		Location: ExtractLocation(text),
		LinkedIn: ExtractLinkedIn(text),
		GitHub:   ExtractGitHub(text),
	}
}

// ExtractNameAndTitle 按位置取前两行非空文本作为姓名和职位
func ExtractNameAndTitle(text string) (name, title string) {
	name, title = types.DefaultName, types.DefaultTitle
	lines := nonBlankLines(text)
	if len(lines) > 0 {
		name = lines[0]
	}
	if len(lines) > 1 {
		title = lines[1]
	}
	return name, title
}

// nonBlankLines 按换行切分，去掉首尾空白并丢弃空行
func nonBlankLines(text string) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
