package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

type ReportRepository interface {
	Save(ctx context.Context, report *domain.LibraryReport) error
	FindByTaskID(ctx context.Context, taskID string) (*domain.LibraryReport, error)
	DeleteByTaskID(ctx context.Context, taskID string) error
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

// Save 写入或覆盖报告, 以 task_id 为冲突键
func (r *reportRepo) Save(ctx context.Context, report *domain.LibraryReport) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			UpdateAll: true,
		}).
		Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to save library report: %w", err)
	}
	return nil
}

func (r *reportRepo) FindByTaskID(ctx context.Context, taskID string) (*domain.LibraryReport, error) {
	var report domain.LibraryReport
	if err := r.db.WithContext(ctx).First(&report, "task_id = ?", taskID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) DeleteByTaskID(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Delete(&domain.LibraryReport{}, "task_id = ?", taskID).Error
}
