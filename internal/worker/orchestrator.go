package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/analyzer"
	"github.com/apk-analysis/libdetect-go/internal/catalog"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

// ProgressBroadcaster 进度对外广播 (websocket hub)
// 实现必须非阻塞: 丢弃通知不影响分析结果
type ProgressBroadcaster interface {
	BroadcastProgress(taskID string, stage domain.TaskStage, percent int)
}

// AnalysisMetrics 编排器上报的指标
type AnalysisMetrics interface {
	RecordAnalysis(status string, duration time.Duration)
	RecordLibrariesMatched(kind string, count int)
	RecordDecodeStats(skippedWords, ignoredPaths, obfuscated int)
}

// Orchestrator 编排一次完整分析: 执行管道、落库报告、推进任务进度
type Orchestrator struct {
	taskRepo    repository.TaskRepository
	reportRepo  repository.ReportRepository
	catalog     *catalog.Manager
	analyzer    *analyzer.Analyzer
	broadcaster ProgressBroadcaster
	metrics     AnalysisMetrics
	logger      *logrus.Logger
}

// NewOrchestrator 创建编排器, broadcaster 与 metrics 可为 nil
func NewOrchestrator(
	taskRepo repository.TaskRepository,
	reportRepo repository.ReportRepository,
	catalogMgr *catalog.Manager,
	a *analyzer.Analyzer,
	broadcaster ProgressBroadcaster,
	metrics AnalysisMetrics,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		taskRepo:    taskRepo,
		reportRepo:  reportRepo,
		catalog:     catalogMgr,
		analyzer:    a,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
	}
}

// ExecuteTask 执行一个分析任务
// 整次分析是失败单位: 解码失败时任务置为 failed 并记录原因
func (o *Orchestrator) ExecuteTask(ctx context.Context, taskID, apkPath string) error {
	start := time.Now()

	if err := o.taskRepo.MarkRunning(ctx, taskID); err != nil {
		return fmt.Errorf("failed to mark task running: %w", err)
	}

	table, err := o.catalog.Table(ctx)
	if err != nil {
		return o.fail(ctx, taskID, start, fmt.Errorf("failed to load rule table: %w", err))
	}

	progress := func(stage domain.TaskStage) {
		percent := stage.Percent()
		if err := o.taskRepo.UpdateProgress(ctx, taskID, stage, percent); err != nil {
			o.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to persist progress")
		}
		if o.broadcaster != nil {
			o.broadcaster.BroadcastProgress(taskID, stage, percent)
		}
	}

	result, err := o.analyzer.Analyze(ctx, apkPath, table, progress)
	if err != nil {
		return o.fail(ctx, taskID, start, err)
	}

	report, err := buildReport(taskID, result)
	if err != nil {
		return o.fail(ctx, taskID, start, err)
	}
	if err := o.reportRepo.Save(ctx, report); err != nil {
		return o.fail(ctx, taskID, start, fmt.Errorf("failed to save report: %w", err))
	}

	if err := o.taskRepo.MarkCompleted(ctx, taskID); err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	if o.metrics != nil {
		o.metrics.RecordAnalysis(string(domain.TaskStatusCompleted), time.Since(start))
		o.metrics.RecordLibrariesMatched("all", len(result.Libraries.Libraries))
		o.metrics.RecordDecodeStats(result.Stats.SkippedWords, result.Native.IgnoredPaths, result.Libraries.ObfuscatedNative)
	}

	o.logger.WithFields(logrus.Fields{
		"task_id":     taskID,
		"apk":         filepath.Base(apkPath),
		"package":     result.Manifest.Package,
		"libraries":   len(result.Libraries.Libraries),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Analysis task finished")
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, taskID string, start time.Time, cause error) error {
	if err := o.taskRepo.MarkFailed(ctx, taskID, cause.Error()); err != nil {
		o.logger.WithError(err).WithField("task_id", taskID).Error("Failed to mark task failed")
	}
	if o.metrics != nil {
		o.metrics.RecordAnalysis(string(domain.TaskStatusFailed), time.Since(start))
	}
	return cause
}

// buildReport 把分析结果装配为落库报告
func buildReport(taskID string, result *analyzer.Result) (*domain.LibraryReport, error) {
	librariesJSON, err := json.Marshal(result.Libraries.Libraries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal libraries: %w", err)
	}

	info := result.Manifest
	return &domain.LibraryReport{
		TaskID:            taskID,
		PackageName:       info.Package,
		VersionName:       info.VersionName,
		VersionCode:       info.VersionCode,
		AppLabel:          info.AppLabel,
		MinSDK:            info.MinSDK,
		TargetSDK:         info.TargetSDK,
		ActivityCount:     len(info.Activities),
		ServiceCount:      len(info.Services),
		ProviderCount:     len(info.Providers),
		ReceiverCount:     len(info.Receivers),
		PermissionCount:   len(info.Permissions),
		NativeLibCount:    len(result.Native.Entries),
		MatchedCount:      len(result.Libraries.Libraries),
		UnmatchedNative:   result.Libraries.UnmatchedNative,
		ObfuscatedNative:  result.Libraries.ObfuscatedNative,
		DroppedComponents: result.Libraries.DroppedComponents,
		SkippedWords:      result.Stats.SkippedWords,
		TagMismatches:     result.Stats.TagMismatches,
		IgnoredPaths:      result.Native.IgnoredPaths,
		ManifestXML:       result.XML,
		LibrariesJSON:     string(librariesJSON),
		DecodeDurationMs:  int(result.DecodeDuration.Milliseconds()),
		TotalDurationMs:   int(result.TotalDuration.Milliseconds()),
	}, nil
}
