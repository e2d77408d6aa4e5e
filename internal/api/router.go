// Package api HTTP 路由与全局中间件
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/api/handlers"
	"github.com/apk-analysis/libdetect-go/internal/config"
	"github.com/apk-analysis/libdetect-go/internal/middleware"
	"github.com/apk-analysis/libdetect-go/internal/ws"
)

// Deps 路由依赖
type Deps struct {
	TaskHandler   *handlers.TaskHandler
	FileHandler   *handlers.FileHandler
	RuleHandler   *handlers.RuleHandler
	ReportHandler *handlers.ReportHandler
	Hub           *ws.Hub
	Metrics       *middleware.PrometheusMetrics
}

// SetupRouter 装配路由
func SetupRouter(cfg *config.Config, logger *logrus.Logger, deps Deps) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	if deps.Metrics != nil {
		r.Use(deps.Metrics.HTTPMiddleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	if deps.Hub != nil {
		r.GET("/ws/tasks/:id/progress", deps.Hub.HandleWebSocket)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": "1.0.0",
			})
		})

		// 系统统计
		v1.GET("/stats", deps.TaskHandler.GetSystemStats)

		// 任务管理
		v1.GET("/tasks", deps.TaskHandler.ListTasks)
		v1.GET("/tasks/:id", deps.TaskHandler.GetTask)
		v1.DELETE("/tasks/:id", deps.TaskHandler.DeleteTask)

		// 分析报告
		v1.GET("/tasks/:id/report", deps.ReportHandler.GetReport)
		v1.GET("/tasks/:id/report/html", deps.ReportHandler.GetReportHTML)
		v1.GET("/tasks/:id/manifest", deps.ReportHandler.GetManifestXML)

		// APK 上传
		v1.POST("/upload", deps.FileHandler.UploadAPK)
		v1.POST("/upload/batch", deps.FileHandler.UploadAPKBatch)

		// 规则目录管理 (固定路径必须在 :id 之前)
		v1.GET("/rules", deps.RuleHandler.ListRules)
		v1.POST("/rules", deps.RuleHandler.CreateRule)
		v1.GET("/rules/stats", deps.RuleHandler.GetRuleStats)
		v1.POST("/rules/import", deps.RuleHandler.ImportRules)
		v1.GET("/rules/:id", deps.RuleHandler.GetRule)
		v1.PUT("/rules/:id", deps.RuleHandler.UpdateRule)
		v1.DELETE("/rules/:id", deps.RuleHandler.DeleteRule)
	}

	return r
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(startTime).Milliseconds(),
		}).Info("HTTP Request")
	}
}

// CORSMiddleware CORS 中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
