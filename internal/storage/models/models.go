package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResumeSnapshot 每次成功解析追加一行，只用于查看历史，流水线从不读取
type ResumeSnapshot struct {
	SnapshotID  string         `gorm:"type:char(36);primaryKey" json:"snapshot_id"`
	RunID       string         `gorm:"type:char(36);not null;uniqueIndex:idx_resume_snapshots_run_id" json:"run_id"`
	SourcePath  string         `gorm:"type:varchar(512)" json:"source_path"`
	SourceMD5   string         `gorm:"type:char(32);index:idx_resume_snapshots_source_md5" json:"source_md5"`
	OutputPath  string         `gorm:"type:varchar(512)" json:"output_path"`
	Name        string         `gorm:"type:varchar(255)" json:"name"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	PageCount   int            `gorm:"type:int" json:"page_count"`
	SkillsCount int            `gorm:"type:int" json:"skills_count"`
	Payload     datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	ParsedAt    time.Time      `gorm:"type:datetime(6);index:idx_resume_snapshots_parsed_at" json:"parsed_at"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
}

func (ResumeSnapshot) TableName() string {
	return "resume_snapshots"
}
