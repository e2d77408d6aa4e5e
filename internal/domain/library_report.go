package domain

import "time"

// LibraryReport 一次分析的落库结果
// 清单摘要 + 美化后的 XML + 匹配结果 JSON + 解码/扫描计数器
type LibraryReport struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID string `gorm:"type:varchar(36);uniqueIndex:uk_task_id;not null" json:"task_id"`

	// 清单摘要
	PackageName string `gorm:"type:varchar(255);index:idx_package_name" json:"package_name,omitempty"`
	VersionName string `gorm:"type:varchar(50)" json:"version_name,omitempty"`
	VersionCode string `gorm:"type:varchar(20)" json:"version_code,omitempty"`
	AppLabel    string `gorm:"type:varchar(255)" json:"app_label,omitempty"`
	MinSDK      string `gorm:"type:varchar(10)" json:"min_sdk,omitempty"`
	TargetSDK   string `gorm:"type:varchar(10)" json:"target_sdk,omitempty"`

	// 组件/权限统计
	ActivityCount   int `gorm:"default:0" json:"activity_count"`
	ServiceCount    int `gorm:"default:0" json:"service_count"`
	ProviderCount   int `gorm:"default:0" json:"provider_count"`
	ReceiverCount   int `gorm:"default:0" json:"receiver_count"`
	PermissionCount int `gorm:"default:0" json:"permission_count"`
	NativeLibCount  int `gorm:"default:0" json:"native_lib_count"`

	// 识别结果统计
	MatchedCount      int `gorm:"default:0" json:"matched_count"`
	UnmatchedNative   int `gorm:"default:0" json:"unmatched_native"`
	ObfuscatedNative  int `gorm:"default:0" json:"obfuscated_native"`
	DroppedComponents int `gorm:"default:0" json:"dropped_components"`

	// 解码/扫描健壮性计数器
	SkippedWords  int `gorm:"default:0" json:"skipped_words"`
	TagMismatches int `gorm:"default:0" json:"tag_mismatches"`
	IgnoredPaths  int `gorm:"default:0" json:"ignored_paths"`

	// 大字段
	ManifestXML   string `gorm:"type:mediumtext" json:"manifest_xml,omitempty"`
	LibrariesJSON string `gorm:"type:mediumtext" json:"libraries_json,omitempty"`

	// 耗时
	DecodeDurationMs int `gorm:"type:int" json:"decode_duration_ms,omitempty"`
	TotalDurationMs  int `gorm:"type:int" json:"total_duration_ms,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LibraryReport) TableName() string {
	return "library_reports"
}
