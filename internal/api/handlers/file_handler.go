package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/service"
)

// 上传大小上限
const maxUploadSize = int64(500 * 1024 * 1024) // 500MB

// FileHandler APK 上传处理器
// 上传落盘后直接创建分析任务, 服务层的防重复窗口会拦住
// 文件监控器对同一文件的二次触发
type FileHandler struct {
	taskService service.TaskService
	apkDir      string
	logger      *logrus.Logger
}

// NewFileHandler 创建文件处理器实例
func NewFileHandler(taskService service.TaskService, apkDir string, logger *logrus.Logger) *FileHandler {
	return &FileHandler{
		taskService: taskService,
		apkDir:      apkDir,
		logger:      logger,
	}
}

// UploadAPK 上传单个 APK 并创建分析任务
// POST /api/v1/upload
func (h *FileHandler) UploadAPK(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.logger.WithError(err).Error("Failed to get uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "获取上传文件失败"})
		return
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".apk") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只支持 APK 文件格式"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("文件大小超过限制 (最大 %dMB)", maxUploadSize/(1024*1024)),
		})
		return
	}

	destPath, err := h.saveUpload(file)
	if err != nil {
		h.logger.WithError(err).WithField("filename", file.Filename).Error("Failed to save uploaded APK")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文件上传失败"})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), file.Filename, destPath)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"filename": file.Filename,
		"task_id":  task.ID,
	}).Info("APK uploaded and task created")

	c.JSON(http.StatusOK, gin.H{
		"message":  "文件上传成功",
		"filename": file.Filename,
		"task_id":  task.ID,
	})
}

// UploadAPKBatch 批量上传 APK
// POST /api/v1/upload/batch
func (h *FileHandler) UploadAPKBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "解析上传表单失败"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请选择要上传的 APK 文件"})
		return
	}

	type uploadResult struct {
		Filename string `json:"filename"`
		TaskID   string `json:"task_id,omitempty"`
		Status   string `json:"status"` // success, error
		Error    string `json:"error,omitempty"`
	}

	results := make([]uploadResult, 0, len(files))
	successCount := 0

	for _, file := range files {
		result := uploadResult{Filename: file.Filename}

		if !strings.HasSuffix(strings.ToLower(file.Filename), ".apk") {
			result.Status = "error"
			result.Error = "只支持 APK 文件格式"
			results = append(results, result)
			continue
		}
		if file.Size > maxUploadSize {
			result.Status = "error"
			result.Error = "文件大小超过限制"
			results = append(results, result)
			continue
		}

		destPath, err := h.saveUpload(file)
		if err != nil {
			h.logger.WithError(err).WithField("filename", file.Filename).Error("Failed to save uploaded APK")
			result.Status = "error"
			result.Error = "保存文件失败"
			results = append(results, result)
			continue
		}

		task, err := h.taskService.CreateTask(c.Request.Context(), file.Filename, destPath)
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Status = "success"
		result.TaskID = task.ID
		successCount++
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("批量上传完成: %d/%d 成功", successCount, len(files)),
		"total":         len(files),
		"success_count": successCount,
		"results":       results,
	})
}

// saveUpload 把上传文件写入 APK 目录
func (h *FileHandler) saveUpload(file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.apkDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create apk directory: %w", err)
	}

	// 只取文件名部分, 防止路径穿越
	destPath := filepath.Join(h.apkDir, filepath.Base(file.Filename))

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return destPath, nil
}
