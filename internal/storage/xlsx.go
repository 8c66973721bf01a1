package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"resume-parser-go/internal/types"
)

// 工作表名称
const (
	SheetOverview       = "Overview"
	SheetSkills         = "Skills"
	SheetExperience     = "Experience"
	SheetEducation      = "Education"
	SheetProjects       = "Projects"
	SheetCertifications = "Certifications"
)

// BuildResumeWorkbook 把记录展开成每个分区一张表，便于人工核对解析结果
func BuildResumeWorkbook(record *types.ResumeRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	overview := [][]any{
		{"Field", "Value"},
		{"Name", record.Name},
		{"Title", record.Title},
		{"Email", record.Contact.Email},
		{"Phone", record.Contact.Phone},
		{"Location", record.Contact.Location},
		{"LinkedIn", record.Contact.LinkedIn},
		{"GitHub", record.Contact.GitHub},
		{"Summary", record.Summary},
	}
	if err := writeSheet(f, SheetOverview, overview); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetOverview, "A", "A", 14)
	_ = f.SetColWidth(SheetOverview, "B", "B", 80)

	skills := [][]any{{"Skill"}}
	for _, s := range record.Skills {
		skills = append(skills, []any{s})
	}

	experience := [][]any{{"Title", "Company", "Period", "Description", "Highlights"}}
	for _, e := range record.Experience {
		experience = append(experience, []any{e.Title, e.Company, e.Period, e.Description, strings.Join(e.Highlights, "\n")})
	}

	education := [][]any{{"Degree", "Institution", "Period"}}
	for _, e := range record.Education {
		education = append(education, []any{e.Degree, e.Institution, e.Period})
	}

	projects := [][]any{{"Name", "Description", "Technologies", "Link"}}
	for _, p := range record.Projects {
		projects = append(projects, []any{p.Name, p.Description, strings.Join(p.Technologies, ", "), p.Link})
	}

	certs := [][]any{{"Name", "Issuer", "Date"}}
	for _, c := range record.Certifications {
		certs = append(certs, []any{c.Name, c.Issuer, c.Date})
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{SheetSkills, skills},
		{SheetExperience, experience},
		{SheetEducation, education},
		{SheetProjects, projects},
		{SheetCertifications, certs},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet.name, sheet.rows); err != nil {
			return nil, err
		}
	}

	if idx, err := f.GetSheetIndex(SheetOverview); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// XLSXExporter 每次解析后在本地写一份表格
type XLSXExporter struct {
	path   string
	logger zerolog.Logger
}

// NewXLSXExporter 创建表格导出器
func NewXLSXExporter(path string, logger zerolog.Logger) *XLSXExporter {
	return &XLSXExporter{path: path, logger: logger}
}

// Name 实现发布器接口
func (x *XLSXExporter) Name() string { return "xlsx" }

// Publish 生成工作簿并覆盖写入
func (x *XLSXExporter) Publish(_ context.Context, run *types.ParseRun, record *types.ResumeRecord, _ []byte) error {
	data, err := BuildResumeWorkbook(record)
	if err != nil {
		return err
	}
	if err := WriteRecordFile(x.path, data); err != nil {
		return err
	}
	x.logger.Info().Str("run_id", run.RunID).Str("path", x.path).Msg("表格已导出")
	return nil
}
