package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

// RuleRepository 库规则数据访问层
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository 创建规则仓库
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListRules 查询规则列表 (支持分页和过滤)
func (r *RuleRepository) ListRules(ctx context.Context, page, limit int, kind, category, status, search string) ([]domain.LibraryRule, int64, error) {
	var rules []domain.LibraryRule
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.LibraryRule{})

	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("`key` LIKE ? OR label LIKE ? OR developer LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count library rules: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&rules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query library rules: %w", err)
	}
	return rules, total, nil
}

// GetRule 根据 ID 获取规则
func (r *RuleRepository) GetRule(ctx context.Context, id uint) (*domain.LibraryRule, error) {
	var rule domain.LibraryRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateRule 创建规则
func (r *RuleRepository) CreateRule(ctx context.Context, rule *domain.LibraryRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create library rule: %w", err)
	}
	return nil
}

// CreateRules 批量创建规则
func (r *RuleRepository) CreateRules(ctx context.Context, rules []domain.LibraryRule) error {
	if len(rules) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rules, 100).Error; err != nil {
		return fmt.Errorf("failed to create library rules: %w", err)
	}
	return nil
}

// UpdateRule 更新规则
func (r *RuleRepository) UpdateRule(ctx context.Context, rule *domain.LibraryRule) error {
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("failed to update library rule: %w", err)
	}
	return nil
}

// DeleteRule 删除规则
func (r *RuleRepository) DeleteRule(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.LibraryRule{}, id).Error
}

// CountByKind 按分区统计规则数量
func (r *RuleRepository) CountByKind(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Kind  string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.LibraryRule{}).
		Select("kind, COUNT(*) as count").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rules by kind: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Kind] = r.Count
	}
	return counts, nil
}
