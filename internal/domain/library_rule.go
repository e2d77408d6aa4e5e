package domain

import "time"

type RuleStatus string

const (
	RuleStatusEnabled  RuleStatus = "enabled"
	RuleStatusDisabled RuleStatus = "disabled"
)

type RuleSource string

const (
	RuleSourceBuiltin  RuleSource = "builtin"
	RuleSourceImported RuleSource = "imported"
	RuleSourceManual   RuleSource = "manual"
)

// LibraryRule 第三方库识别规则
// Key 是归一化后的工件名 (文件名形态或组件类全名), Kind 决定匹配分区
// UUID 是逻辑库的稳定标识: 同一个库的原生规则与组件规则共享同一 UUID
type LibraryRule struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Key           string     `gorm:"type:varchar(255);not null;uniqueIndex:uk_kind_key" json:"key"`
	Kind          string     `gorm:"type:varchar(20);not null;uniqueIndex:uk_kind_key;index:idx_kind" json:"kind"`
	UUID          string     `gorm:"type:varchar(36);not null;index:idx_uuid" json:"uuid"`
	Label         string     `gorm:"type:varchar(255);not null" json:"label"`
	Category      string     `gorm:"type:varchar(50);index:idx_category" json:"category"`
	CategoryLabel string     `gorm:"type:varchar(100)" json:"category_label"`
	CategoryIcon  string     `gorm:"type:varchar(100)" json:"category_icon,omitempty"`
	Developer     string     `gorm:"type:varchar(255)" json:"developer,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	SourceLink    string     `gorm:"type:varchar(500)" json:"source_link,omitempty"`
	Type          string     `gorm:"type:varchar(50)" json:"type,omitempty"`
	Status        RuleStatus `gorm:"type:varchar(20);default:'enabled';index:idx_rule_status" json:"status"`
	Source        RuleSource `gorm:"type:varchar(20);default:'manual'" json:"source"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LibraryRule) TableName() string {
	return "library_rules"
}
