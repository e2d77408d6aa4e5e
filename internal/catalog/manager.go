// Package catalog 管理第三方库规则目录
// 数据库是权威数据源, 内存中维护带 TTL 的不可变规则表快照;
// 每次刷新递增表版本, 匹配会话据此判断自身缓存是否过期
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/libmatch"
)

// Manager 规则目录管理器
type Manager struct {
	db     *gorm.DB
	logger *logrus.Logger

	mu       sync.RWMutex
	table    *libmatch.Table
	loadedAt time.Time
	ttl      time.Duration
	version  uint64
}

// NewManager 创建目录管理器
func NewManager(db *gorm.DB, logger *logrus.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{
		db:     db,
		logger: logger,
		ttl:    ttl,
	}
}

// Table 返回当前规则表快照, 过期时从数据库重建
func (m *Manager) Table(ctx context.Context) (*libmatch.Table, error) {
	m.mu.RLock()
	if m.table != nil && time.Since(m.loadedAt) < m.ttl {
		t := m.table
		m.mu.RUnlock()
		return t, nil
	}
	m.mu.RUnlock()
	return m.Refresh(ctx)
}

// Refresh 强制从数据库重建规则表并递增版本
func (m *Manager) Refresh(ctx context.Context) (*libmatch.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 拿到写锁后再查一次, 避免并发重复刷新
	if m.table != nil && time.Since(m.loadedAt) < m.ttl {
		return m.table, nil
	}

	var rules []domain.LibraryRule
	if err := m.db.WithContext(ctx).
		Where("status = ?", domain.RuleStatusEnabled).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to load library rules: %w", err)
	}

	m.version++
	table := buildTable(m.version, rules)
	m.table = table
	m.loadedAt = time.Now()

	m.logger.WithFields(logrus.Fields{
		"rules":   len(rules),
		"version": table.Version,
	}).Info("Library rule table refreshed")
	return table, nil
}

// Seed 规则表为空时写入内置规则
func (m *Manager) Seed(ctx context.Context) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&domain.LibraryRule{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count library rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	rules := BuiltinRules()
	if err := m.db.WithContext(ctx).Create(&rules).Error; err != nil {
		return fmt.Errorf("failed to seed builtin rules: %w", err)
	}
	m.logger.WithField("rules", len(rules)).Info("Builtin library rules seeded")
	return nil
}

// Invalidate 使当前快照立即过期, 下次 Table 调用触发重建
// 规则增删改之后调用
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadedAt = time.Time{}
}

// Version 当前表版本 (0 表示尚未加载)
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// buildTable 把规则列表装配为匹配表, 保持 id 升序的插入顺序
func buildTable(version uint64, rules []domain.LibraryRule) *libmatch.Table {
	table := libmatch.NewTable(version)
	for i := range rules {
		r := &rules[i]
		table.Add(libmatch.Kind(r.Kind), r.Key, &libmatch.Entry{
			ID:            r.ID,
			UUID:          r.UUID,
			Label:         r.Label,
			Category:      r.Category,
			CategoryLabel: r.CategoryLabel,
			CategoryIcon:  r.CategoryIcon,
			Developer:     r.Developer,
			Description:   r.Description,
			SourceLink:    r.SourceLink,
			Type:          r.Type,
		})
	}
	return table
}

// BuiltinTable 仅由内置规则装配的规则表, 供无数据库的命令行场景使用
func BuiltinTable() *libmatch.Table {
	return buildTable(1, BuiltinRules())
}
