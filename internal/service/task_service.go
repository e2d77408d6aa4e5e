// Package service 任务生命周期的业务层
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/queue"
	"github.com/apk-analysis/libdetect-go/internal/repository"
	"github.com/apk-analysis/libdetect-go/internal/retry"
)

// 防重复窗口: 大文件复制期间文件监控可能触发多次事件
const duplicateWindowSeconds = 60

// TaskPublisher 把任务投递到分析队列
type TaskPublisher interface {
	PublishTask(ctx context.Context, msg *queue.AnalyzeMessage) error
}

// TaskService 任务服务接口
type TaskService interface {
	// 创建任务并投递到分析队列
	CreateTask(ctx context.Context, apkName, apkPath string) (*domain.Task, error)

	// 获取任务
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// 获取任务列表（分页 + 状态过滤 + 名称搜索）
	ListTasks(ctx context.Context, page, pageSize int, status, search string) ([]*domain.Task, int64, error)

	// 删除任务及其报告
	DeleteTask(ctx context.Context, taskID string) error

	// 获取任务状态统计
	GetStatusCounts(ctx context.Context) (map[string]int64, int64, error)
}

type taskService struct {
	taskRepo   repository.TaskRepository
	reportRepo repository.ReportRepository
	publisher  TaskPublisher
	retryCfg   *retry.Config
	logger     *logrus.Logger
}

// NewTaskService 创建任务服务实例, publisher 可为 nil (同步执行场景)
func NewTaskService(
	taskRepo repository.TaskRepository,
	reportRepo repository.ReportRepository,
	publisher TaskPublisher,
	logger *logrus.Logger,
) TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		reportRepo: reportRepo,
		publisher:  publisher,
		retryCfg:   retry.DefaultConfig(),
		logger:     logger,
	}
}

func (s *taskService) CreateTask(ctx context.Context, apkName, apkPath string) (*domain.Task, error) {
	// 防重复: 同名 APK 在时间窗口内只允许创建一个任务
	hasRecent, err := s.taskRepo.HasRecentTaskForAPK(ctx, apkName, duplicateWindowSeconds)
	if err != nil {
		s.logger.WithError(err).WithField("apk_name", apkName).Warn("Failed to check recent task, continuing anyway")
	} else if hasRecent {
		s.logger.WithField("apk_name", apkName).Warn("Duplicate task creation blocked: recent task exists for same APK")
		return nil, fmt.Errorf("任务已存在：最近%d秒内已为该APK创建任务", duplicateWindowSeconds)
	}

	task := &domain.Task{
		ID:        uuid.New().String(),
		APKName:   apkName,
		APKPath:   apkPath,
		Status:    domain.TaskStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.logger.WithError(err).Error("Failed to create task")
		return nil, fmt.Errorf("创建任务失败: %w", err)
	}

	if s.publisher != nil {
		msg := &queue.AnalyzeMessage{
			TaskID:    task.ID,
			APKName:   apkName,
			APKPath:   apkPath,
			CreatedAt: task.CreatedAt,
		}
		err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
			return s.publisher.PublishTask(ctx, msg)
		})
		if err != nil {
			s.logger.WithError(err).WithField("task_id", task.ID).Error("Failed to publish task after retries")
			if markErr := s.taskRepo.MarkFailed(ctx, task.ID, fmt.Sprintf("投递队列失败: %v", err)); markErr != nil {
				s.logger.WithError(markErr).WithField("task_id", task.ID).Error("Failed to mark task failed")
			}
			return nil, fmt.Errorf("投递任务失败: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"apk_name": apkName,
	}).Info("Task created successfully")
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		s.logger.WithError(err).WithField("task_id", taskID).Error("Failed to get task")
		return nil, fmt.Errorf("获取任务失败: %w", err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, page, pageSize int, status, search string) ([]*domain.Task, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	tasks, total, err := s.taskRepo.ListWithPagination(ctx, page, pageSize, status, search)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list tasks")
		return nil, 0, fmt.Errorf("获取任务列表失败: %w", err)
	}
	return tasks, total, nil
}

func (s *taskService) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.reportRepo.DeleteByTaskID(ctx, taskID); err != nil {
		s.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to delete report, continuing")
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		s.logger.WithError(err).WithField("task_id", taskID).Error("Failed to delete task")
		return fmt.Errorf("删除任务失败: %w", err)
	}

	s.logger.WithField("task_id", taskID).Info("Task deleted successfully")
	return nil
}

func (s *taskService) GetStatusCounts(ctx context.Context) (map[string]int64, int64, error) {
	return s.taskRepo.GetStatusCounts(ctx)
}
