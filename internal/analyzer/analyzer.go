// Package analyzer 把解码、提取、扫描、匹配串成一次完整的 APK 分析
// 管道严格单线程顺序执行, 失败单位是整次分析: 清单解码失败即整体失败,
// 扫描与匹配从不失败
package analyzer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/axml"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/libmatch"
	"github.com/apk-analysis/libdetect-go/internal/manifest"
	"github.com/apk-analysis/libdetect-go/internal/nativelib"
)

const manifestEntryName = "AndroidManifest.xml"

// Progress 阶段通知回调, 仅供观测, 丢弃或延迟不影响分析结果
type Progress func(stage domain.TaskStage)

// Result 一次分析的完整输出
type Result struct {
	Manifest  *manifest.Info
	XML       string
	Stats     axml.Stats
	Native    *nativelib.Result
	Libraries *libmatch.AggregateResult

	DecodeDuration time.Duration
	TotalDuration  time.Duration
}

// Analyzer 分析管道
type Analyzer struct {
	logger    *logrus.Logger
	extractor *manifest.Extractor
	scanner   *nativelib.Scanner
}

// New 创建分析器
func New(logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		logger:    logger,
		extractor: manifest.NewExtractor(logger),
		scanner:   nativelib.NewScanner(),
	}
}

// Analyze 分析一个 APK 文件
// 每次分析使用全新的匹配会话 (全新记忆化缓存), 会话不跨分析复用
func (a *Analyzer) Analyze(ctx context.Context, apkPath string, table *libmatch.Table, progress Progress) (*Result, error) {
	reader, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open apk: %w", err)
	}
	defer reader.Close()

	notify(progress, domain.StageExtract)

	var manifestData []byte
	paths := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		paths = append(paths, f.Name)
		if f.Name == manifestEntryName {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open manifest entry: %w", err)
			}
			manifestData, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest entry: %w", err)
			}
		}
	}
	if manifestData == nil {
		return nil, fmt.Errorf("apk has no %s entry", manifestEntryName)
	}

	return a.AnalyzeEntries(ctx, manifestData, paths, table, progress)
}

// AnalyzeEntries 从清单字节与归档条目路径开始分析
func (a *Analyzer) AnalyzeEntries(ctx context.Context, manifestData []byte, paths []string, table *libmatch.Table, progress Progress) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. 解码二进制清单, 失败即整次分析失败
	notify(progress, domain.StageParse)
	decodeStart := time.Now()
	doc, err := axml.Decode(manifestData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode binary manifest: %w", err)
	}
	decodeDuration := time.Since(decodeStart)

	xml := doc.XML()
	info := a.extractor.Extract(xml)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. 扫描原生库
	notify(progress, domain.StageScan)
	native := a.scanner.Scan(paths)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. 匹配与聚合, 每次分析一个全新会话
	notify(progress, domain.StageMatch)
	session := libmatch.NewSession(table)

	natives := make([]libmatch.NativeRecord, 0, len(native.Entries))
	for _, e := range native.Entries {
		natives = append(natives, libmatch.NativeRecord{
			Name:  e.Name,
			Count: e.Count,
			Paths: e.Paths,
			ABIs:  e.ABIs,
		})
	}

	var components []libmatch.ComponentRecord
	appendComponents := func(kind libmatch.Kind, names []string) {
		for _, name := range names {
			components = append(components, libmatch.ComponentRecord{Kind: kind, Name: name})
		}
	}
	appendComponents(libmatch.KindActivity, info.Activities)
	appendComponents(libmatch.KindService, info.Services)
	appendComponents(libmatch.KindProvider, info.Providers)
	appendComponents(libmatch.KindReceiver, info.Receivers)

	agg := libmatch.Aggregate(session, natives, components)

	notify(progress, domain.StageComplete)

	result := &Result{
		Manifest:       info,
		XML:            xml,
		Stats:          doc.Stats,
		Native:         native,
		Libraries:      agg,
		DecodeDuration: decodeDuration,
		TotalDuration:  time.Since(start),
	}

	a.logger.WithFields(logrus.Fields{
		"package":       info.Package,
		"native_libs":   len(native.Entries),
		"matched":       len(agg.Libraries),
		"obfuscated":    agg.ObfuscatedNative,
		"skipped_words": doc.Stats.SkippedWords,
		"duration_ms":   result.TotalDuration.Milliseconds(),
	}).Info("Analysis completed")

	return result, nil
}

func notify(progress Progress, stage domain.TaskStage) {
	if progress != nil {
		progress(stage)
	}
}
