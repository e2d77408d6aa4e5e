package repository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	ListWithPagination(ctx context.Context, page, pageSize int, statusFilter, search string) ([]*domain.Task, int64, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	UpdateProgress(ctx context.Context, id string, stage domain.TaskStage, percent int) error
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	// 检查是否存在最近创建的同名 APK 任务 (防止重复创建)
	HasRecentTaskForAPK(ctx context.Context, apkName string, withinSeconds int) (bool, error)
	GetStatusCounts(ctx context.Context) (map[string]int64, int64, error)
}

type taskRepo struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewTaskRepository(db *gorm.DB, logger *logrus.Logger) TaskRepository {
	return &taskRepo{
		db:     db,
		logger: logger,
	}
}

func (r *taskRepo) Create(ctx context.Context, task *domain.Task) error {
	task.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepo) Update(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepo) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) ListWithPagination(ctx context.Context, page, pageSize int, statusFilter, search string) ([]*domain.Task, int64, error) {
	var tasks []*domain.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Task{})
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}
	if search != "" {
		query = query.Where("apk_name LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id).Error
}

func (r *taskRepo) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *taskRepo) UpdateProgress(ctx context.Context, id string, stage domain.TaskStage, percent int) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage":    stage,
			"progress": percent,
		}).Error
}

func (r *taskRepo) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.TaskStatusRunning,
			"started_at": &now,
		}).Error
}

func (r *taskRepo) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.TaskStatusCompleted,
			"stage":        domain.StageComplete,
			"progress":     100,
			"completed_at": &now,
		}).Error
}

func (r *taskRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.TaskStatusFailed,
			"error_message": errorMessage,
			"completed_at":  &now,
		}).Error
}

func (r *taskRepo) HasRecentTaskForAPK(ctx context.Context, apkName string, withinSeconds int) (bool, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(withinSeconds) * time.Second)
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("apk_name = ? AND created_at > ?", apkName, cutoff).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *taskRepo) GetStatusCounts(ctx context.Context) (map[string]int64, int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		counts[r.Status] = r.Count
		total += r.Count
	}
	return counts, total, nil
}
