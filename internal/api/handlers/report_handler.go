package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/report"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

// ReportHandler 分析报告处理器
type ReportHandler struct {
	reportRepo repository.ReportRepository
	renderer   *report.Renderer
	logger     *logrus.Logger
}

// NewReportHandler 创建报告处理器实例
func NewReportHandler(reportRepo repository.ReportRepository, renderer *report.Renderer, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		reportRepo: reportRepo,
		renderer:   renderer,
		logger:     logger,
	}
}

// GetReport 获取分析报告 (JSON)
// GET /api/v1/tasks/:id/report
func (h *ReportHandler) GetReport(c *gin.Context) {
	taskID := c.Param("id")

	rep, err := h.reportRepo.FindByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "分析报告不存在"})
		return
	}

	// LibrariesJSON 在响应里展开成结构化数据
	var libraries interface{}
	if rep.LibrariesJSON != "" {
		if err := json.Unmarshal([]byte(rep.LibrariesJSON), &libraries); err != nil {
			h.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to parse libraries JSON")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"report":    rep,
		"libraries": libraries,
	})
}

// GetReportHTML 获取分析报告 (HTML 页面)
// GET /api/v1/tasks/:id/report/html
func (h *ReportHandler) GetReportHTML(c *gin.Context) {
	taskID := c.Param("id")

	rep, err := h.reportRepo.FindByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "分析报告不存在"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.renderer.Render(c.Writer, rep); err != nil {
		h.logger.WithError(err).WithField("task_id", taskID).Error("Failed to render report")
	}
}

// GetManifestXML 获取美化后的清单 XML
// GET /api/v1/tasks/:id/manifest
func (h *ReportHandler) GetManifestXML(c *gin.Context) {
	taskID := c.Param("id")

	rep, err := h.reportRepo.FindByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "分析报告不存在"})
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, rep.ManifestXML)
}
