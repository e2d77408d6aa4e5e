// Package handlers HTTP 请求处理器
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/service"
)

// QueueInspector 查询队列积压 (rabbitmq 生产者)
type QueueInspector interface {
	QueueSize() (int, error)
}

// TaskHandler 任务管理处理器
type TaskHandler struct {
	taskService service.TaskService
	queue       QueueInspector
	logger      *logrus.Logger
}

// NewTaskHandler 创建任务处理器实例, queue 可为 nil
func NewTaskHandler(taskService service.TaskService, queue QueueInspector, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		queue:       queue,
		logger:      logger,
	}
}

// ListTasks 获取任务列表
// GET /api/v1/tasks?page=1&page_size=20&status=completed&search=foo
func (h *TaskHandler) ListTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")
	search := c.Query("search")

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), page, pageSize, status, search)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":     tasks,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetTask 获取任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID := c.Param("id")

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask 删除任务及报告
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID := c.Param("id")

	if _, err := h.taskService.GetTask(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		h.logger.WithError(err).WithField("task_id", taskID).Error("Failed to delete task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除任务失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "任务已删除"})
}

// GetSystemStats 系统统计: 任务状态分布 + 队列积压
// GET /api/v1/stats
func (h *TaskHandler) GetSystemStats(c *gin.Context) {
	counts, total, err := h.taskService.GetStatusCounts(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get status counts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取统计失败"})
		return
	}

	resp := gin.H{
		"total":         total,
		"status_counts": counts,
	}
	if h.queue != nil {
		if size, err := h.queue.QueueSize(); err == nil {
			resp["queue_size"] = size
		}
	}
	c.JSON(http.StatusOK, resp)
}
