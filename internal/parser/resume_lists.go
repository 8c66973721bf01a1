package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-parser-go/internal/types"
)

var (
	skillSeparators   = regexp.MustCompile(`[,•\n|]`)
	skillHeadingLabel = regexp.MustCompile(`(?i)^(Skills?|Technical|Languages?):?$`)
	techSeparators    = regexp.MustCompile(`[,|]`)
	certBulletPrefix  = regexp.MustCompile(`^[•\-–—]\s*`)
	certSeparators    = regexp.MustCompile(`[-–—]`)
)

// 单个技能的最大长度（不含），超过的片段多半是整句描述
const maxSkillLength = 50

// ParseSkills 按逗号、圆点、竖线、换行切分技能，去重并保持首次出现的顺序
func ParseSkills(text string) []string {
	skills := []string{}
	if text == "" {
		return skills
	}

	seen := make(map[string]struct{})
	for _, piece := range skillSeparators.Split(text, -1) {
		s := strings.TrimSpace(piece)
		n := utf8.RuneCountInString(s)
		if n == 0 || n >= maxSkillLength {
			continue
		}
		if skillHeadingLabel.MatchString(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}
	return skills
}

// splitProjectBlocks 在以大写字母开头的行处切分项目块
func splitProjectBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	for i, raw := range strings.Split(text, "\n") {
		if i > 0 && raw != "" && raw[0] >= 'A' && raw[0] <= 'Z' {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, raw)
	}
	return append(blocks, current)
}

// ParseProjects 解析项目列表
//
// 块内第一行为项目名；包含 http(s):// 的行为链接；小写后包含 tech 或 stack 的行
// 去掉第一个冒号之前的标签后按逗号或竖线拆成技术栈；其余行拼进描述。
func ParseProjects(text string) []types.ProjectEntry {
	projects := []types.ProjectEntry{}
	if text == "" {
		return projects
	}

	for _, block := range splitProjectBlocks(text) {
		lines := nonBlankLines(strings.Join(block, "\n"))
		if len(lines) == 0 {
			continue
		}

		project := types.ProjectEntry{
			Name:         lines[0],
			Technologies: []string{},
		}
		var description []string
		for _, line := range lines[1:] {
			lower := strings.ToLower(line)
			switch {
			case strings.Contains(line, "http://") || strings.Contains(line, "https://"):
				project.Link = line
			case strings.Contains(lower, "tech") || strings.Contains(lower, "stack"):
				project.Technologies = parseTechnologies(line)
			default:
				description = append(description, line)
			}
		}
		project.Description = strings.TrimSpace(strings.Join(description, " "))

		if project.Name != "" {
			projects = append(projects, project)
		}
	}
	return projects
}

func parseTechnologies(line string) []string {
	if i := strings.Index(line, ":"); i >= 0 {
		line = line[i+1:]
	}
	techs := []string{}
	for _, t := range techSeparators.Split(line, -1) {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	return techs
}

// ParseCertifications 每个非空行一条证书，按连字符拆成 名称/颁发机构/日期
func ParseCertifications(text string) []types.CertificationEntry {
	certs := []types.CertificationEntry{}
	for _, line := range nonBlankLines(text) {
		line = strings.TrimSpace(certBulletPrefix.ReplaceAllString(line, ""))
		parts := certSeparators.Split(line, -1)

		cert := types.CertificationEntry{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			cert.Issuer = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			cert.Date = strings.TrimSpace(parts[2])
		}
		if cert.Name == "" {
			continue
		}
		certs = append(certs, cert)
	}
	return certs
}
