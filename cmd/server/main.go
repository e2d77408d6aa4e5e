package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/apk-analysis/libdetect-go/internal/analyzer"
	"github.com/apk-analysis/libdetect-go/internal/api"
	"github.com/apk-analysis/libdetect-go/internal/api/handlers"
	"github.com/apk-analysis/libdetect-go/internal/catalog"
	"github.com/apk-analysis/libdetect-go/internal/config"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/middleware"
	"github.com/apk-analysis/libdetect-go/internal/queue"
	"github.com/apk-analysis/libdetect-go/internal/report"
	"github.com/apk-analysis/libdetect-go/internal/repository"
	"github.com/apk-analysis/libdetect-go/internal/service"
	"github.com/apk-analysis/libdetect-go/internal/watcher"
	"github.com/apk-analysis/libdetect-go/internal/worker"
	"github.com/apk-analysis/libdetect-go/internal/ws"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	fmt.Printf("APK Library Detection Service\n")
	fmt.Printf("Version: %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n\n", GitCommit)

	configPath := "./configs/config.yaml"
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		configPath = os.Args[2]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.InitLogger(&cfg.Log)
	logger.Infof("Starting library detection service %s", Version)
	logger.Infof("Config loaded from: %s", configPath)

	db, err := repository.InitDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to init database: %v", err)
	}
	logger.Info("Database connected successfully")

	// 清理因服务重启而中断的任务
	if err := cleanupStuckTasks(db, logger); err != nil {
		logger.WithError(err).Warn("Failed to cleanup stuck tasks")
	}

	// 规则目录
	catalogTTL := time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second
	catalogMgr := catalog.NewManager(db, logger, catalogTTL)
	if cfg.Catalog.SeedBuiltin {
		if err := catalogMgr.Seed(context.Background()); err != nil {
			logger.Fatalf("Failed to seed builtin rules: %v", err)
		}
	}
	if _, err := catalogMgr.Table(context.Background()); err != nil {
		logger.Fatalf("Failed to load rule table: %v", err)
	}

	// RabbitMQ: prefetch = worker 数量, 支持并行消费
	workerCount := cfg.Worker.Concurrency
	if workerCount <= 0 {
		workerCount = 1
	}
	mqConfig := &queue.RabbitMQConfig{
		Host:     cfg.RabbitMQ.Host,
		Port:     cfg.RabbitMQ.Port,
		User:     cfg.RabbitMQ.User,
		Password: cfg.RabbitMQ.Password,
		VHost:    cfg.RabbitMQ.VHost,
	}
	mq, err := queue.NewRabbitMQ(mqConfig, cfg.RabbitMQ.Queue, workerCount, logger)
	if err != nil {
		logger.Fatalf("Failed to init RabbitMQ: %v", err)
	}
	defer mq.Close()
	mq.StartConnectionWatcher()
	logger.WithField("prefetch_count", workerCount).Info("RabbitMQ connected successfully")

	producer := queue.NewProducer(mq, logger)

	// 数据访问与服务层
	taskRepo := repository.NewTaskRepository(db, logger)
	reportRepo := repository.NewReportRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	taskService := service.NewTaskService(taskRepo, reportRepo, producer, logger)

	// Prometheus 指标
	promMetrics := middleware.NewPrometheusMetrics(logger, "libdetect")

	// WebSocket 进度推送
	hub := ws.NewHub(logger)
	hub.Start()

	// 分析编排与 Worker 池
	orchestrator := worker.NewOrchestrator(taskRepo, reportRepo, catalogMgr, analyzer.New(logger), hub, promMetrics, logger)
	workerPool := worker.NewPool(workerCount, cfg.Worker.QueueSize, orchestrator, logger)
	workerPool.Start(context.Background())
	defer workerPool.Stop()
	logger.Infof("Worker pool started with %d workers", workerCount)

	// 服务重启后以数据库为准重建队列
	if err := republishQueuedTasks(db, producer, logger); err != nil {
		logger.WithError(err).Warn("Failed to republish queued tasks")
	}

	// 消费 RabbitMQ 任务并提交到 Worker 池
	consumer := queue.NewConsumer(mq, createAnalyzeHandler(workerPool, logger), workerCount, logger)
	if err := consumer.Start(context.Background()); err != nil {
		logger.Fatalf("Failed to start consumer: %v", err)
	}
	defer consumer.Stop()
	logger.Infof("Task consumer started with %d workers", workerCount)

	// 文件监控: 新 APK 落盘后自动创建任务
	if cfg.Watcher.Enabled {
		opts := &watcher.Options{
			Debounce:     time.Duration(cfg.Watcher.DebounceSeconds) * time.Second,
			StableWindow: time.Duration(cfg.Watcher.StableSeconds) * time.Second,
		}
		apkWatcher, err := watcher.New(cfg.APKDir, createWatchHandler(taskService, logger), opts, logger)
		if err != nil {
			logger.Fatalf("Failed to create file watcher: %v", err)
		}
		defer apkWatcher.Stop()
		apkWatcher.Start(context.Background())
		logger.Infof("APK watcher started for directory: %s", cfg.APKDir)
	}

	// 指标定期刷新
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			promMetrics.UpdateWorkerQueueSize(workerPool.QueueSize())
			if table, err := catalogMgr.Table(context.Background()); err == nil {
				promMetrics.UpdateCatalogRules(table.Size())
			}
		}
	}()

	// HTTP 路由
	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Fatalf("Failed to init report renderer: %v", err)
	}
	router := api.SetupRouter(cfg, logger, api.Deps{
		TaskHandler:   handlers.NewTaskHandler(taskService, producer, logger),
		FileHandler:   handlers.NewFileHandler(taskService, cfg.APKDir, logger),
		RuleHandler:   handlers.NewRuleHandler(ruleRepo, catalogMgr, logger),
		ReportHandler: handlers.NewReportHandler(reportRepo, renderer, logger),
		Hub:           hub,
		Metrics:       promMetrics,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // 支持大文件上传
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("Server stopped")
}

// createAnalyzeHandler 把 RabbitMQ 消息提交到 Worker 池并同步等待完成
func createAnalyzeHandler(workerPool *worker.Pool, logger *logrus.Logger) queue.AnalyzeHandler {
	return func(ctx context.Context, msg *queue.AnalyzeMessage) error {
		logger.WithFields(logrus.Fields{
			"task_id":  msg.TaskID,
			"apk_name": msg.APKName,
		}).Info("Received task from RabbitMQ, submitting to worker pool")

		task := &worker.Task{
			ID:      msg.TaskID,
			APKPath: msg.APKPath,
		}
		if err := workerPool.SubmitAndWait(ctx, task); err != nil {
			logger.WithError(err).WithField("task_id", msg.TaskID).Error("Task execution failed")
			return err
		}

		logger.WithField("task_id", msg.TaskID).Info("Task completed successfully")
		return nil
	}
}

// createWatchHandler 新 APK 落盘后创建分析任务
// 任务投递由服务层完成, 这里只需要创建
func createWatchHandler(taskService service.TaskService, logger *logrus.Logger) watcher.Handler {
	return func(ctx context.Context, apkPath string) error {
		fileName := filepath.Base(apkPath)
		logger.WithField("file_name", fileName).Info("New APK file detected")

		task, err := taskService.CreateTask(ctx, fileName, apkPath)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"task_id":  task.ID,
			"apk_name": fileName,
		}).Info("Task created for watched APK")
		return nil
	}
}

// cleanupStuckTasks 把上一次服务运行中断的 running 任务标记为失败
// queued 任务不动: 它们会由 republishQueuedTasks 重新入队
func cleanupStuckTasks(db *gorm.DB, logger *logrus.Logger) error {
	now := time.Now().UTC()
	result := db.Model(&domain.Task{}).
		Where("status = ?", domain.TaskStatusRunning).
		Updates(map[string]interface{}{
			"status":        domain.TaskStatusFailed,
			"error_message": "服务重启，任务中断",
			"completed_at":  &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update stuck tasks: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.WithField("count", result.RowsAffected).Warn("Marked stuck tasks as failed due to service restart")
	}
	return nil
}

// republishQueuedTasks 服务重启后以数据库为唯一数据源重建 RabbitMQ 队列
func republishQueuedTasks(db *gorm.DB, producer *queue.Producer, logger *logrus.Logger) error {
	var queuedTasks []domain.Task
	err := db.Model(&domain.Task{}).
		Where("status = ?", domain.TaskStatusQueued).
		Order("created_at ASC").
		Find(&queuedTasks).Error
	if err != nil {
		return fmt.Errorf("failed to query queued tasks: %w", err)
	}
	if len(queuedTasks) == 0 {
		return nil
	}

	logger.Infof("Found %d queued tasks in database, republishing to RabbitMQ...", len(queuedTasks))

	successCount := 0
	for _, task := range queuedTasks {
		msg := &queue.AnalyzeMessage{
			TaskID:    task.ID,
			APKName:   task.APKName,
			APKPath:   task.APKPath,
			CreatedAt: task.CreatedAt,
		}
		if err := producer.PublishTask(context.Background(), msg); err != nil {
			logger.WithError(err).WithField("task_id", task.ID).Error("Failed to republish task")
			continue
		}
		successCount++
	}

	logger.WithFields(logrus.Fields{
		"total":   len(queuedTasks),
		"success": successCount,
	}).Info("Queued tasks republished to RabbitMQ")
	return nil
}
