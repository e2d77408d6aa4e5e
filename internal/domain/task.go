package domain

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// TaskStage 分析阶段, 进度通知按此顺序推进
type TaskStage string

const (
	StageExtract  TaskStage = "extract"
	StageParse    TaskStage = "parse"
	StageScan     TaskStage = "scan"
	StageMatch    TaskStage = "match"
	StageComplete TaskStage = "complete"
)

// Percent 阶段对应的进度百分比
func (s TaskStage) Percent() int {
	switch s {
	case StageExtract:
		return 10
	case StageParse:
		return 35
	case StageScan:
		return 60
	case StageMatch:
		return 85
	case StageComplete:
		return 100
	default:
		return 0
	}
}

// Task 一次 APK 库识别分析任务
type Task struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	APKName      string     `gorm:"type:varchar(255);not null;index:idx_apk_name" json:"apk_name"`
	APKPath      string     `gorm:"type:varchar(1024);not null" json:"apk_path"`
	Status       TaskStatus `gorm:"type:varchar(20);default:'queued';index:idx_status" json:"status"`
	Stage        TaskStage  `gorm:"type:varchar(20)" json:"stage,omitempty"`
	Progress     int        `gorm:"default:0" json:"progress"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (Task) TableName() string {
	return "analysis_tasks"
}

// IsTerminal 任务是否已到达终态
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
