// Package watcher 监控 APK 目录, 新文件落盘后自动创建分析任务
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Handler 新 APK 就绪后的处理函数, 通常是创建分析任务
type Handler func(ctx context.Context, apkPath string) error

// Options 监控参数
type Options struct {
	Debounce     time.Duration // 同一文件事件的合并窗口
	StableWindow time.Duration // 大小稳定判定的采样间隔
	MaxWaits     int           // 等待写入完成的最大采样次数
}

func (o *Options) withDefaults() Options {
	opts := Options{
		Debounce:     2 * time.Second,
		StableWindow: 500 * time.Millisecond,
		MaxWaits:     10,
	}
	if o == nil {
		return opts
	}
	if o.Debounce > 0 {
		opts.Debounce = o.Debounce
	}
	if o.StableWindow > 0 {
		opts.StableWindow = o.StableWindow
	}
	if o.MaxWaits > 0 {
		opts.MaxWaits = o.MaxWaits
	}
	return opts
}

// APKWatcher APK 目录监控器
// 复制大文件时 fsnotify 会触发多次 Write 事件, 用防抖 + 大小稳定检查
// 保证 handler 只在文件完整落盘后被调用一次
type APKWatcher struct {
	watcher  *fsnotify.Watcher
	watchDir string
	handler  Handler
	opts     Options
	logger   *logrus.Logger

	mu         sync.Mutex
	processing map[string]bool
	timers     map[string]*time.Timer

	stopOnce sync.Once
	stopChan chan struct{}
}

// New 创建监控器, 目录不存在时自动创建
func New(watchDir string, handler Handler, opts *Options, logger *logrus.Logger) (*APKWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := os.MkdirAll(watchDir, 0755); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}
	if err := w.Add(watchDir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to add watch directory: %w", err)
	}

	aw := &APKWatcher{
		watcher:    w,
		watchDir:   watchDir,
		handler:    handler,
		opts:       opts.withDefaults(),
		logger:     logger,
		processing: make(map[string]bool),
		timers:     make(map[string]*time.Timer),
		stopChan:   make(chan struct{}),
	}

	logger.WithField("watch_dir", watchDir).Info("APK watcher created")
	return aw, nil
}

// Start 启动事件循环
// 启动时不扫描已有文件: 重启服务不应重复分析历史 APK
func (w *APKWatcher) Start(ctx context.Context) {
	go w.eventLoop(ctx)
	w.logger.Info("APK watcher started")
}

func (w *APKWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isAPK(event.Name) {
				continue
			}

			w.logger.WithFields(logrus.Fields{
				"event": event.Op.String(),
				"file":  filepath.Base(event.Name),
			}).Debug("APK file event")
			w.debounce(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		}
	}
}

// debounce 同一文件的连续事件只保留最后一次
func (w *APKWatcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.handleFile(ctx, path)
	})
}

func (w *APKWatcher) handleFile(ctx context.Context, path string) {
	w.mu.Lock()
	if w.processing[path] {
		w.mu.Unlock()
		return
	}
	w.processing[path] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.processing, path)
		w.mu.Unlock()
	}()

	if err := w.waitForStable(path); err != nil {
		w.logger.WithError(err).WithField("file", path).Error("APK file not ready")
		return
	}

	w.logger.WithField("file", filepath.Base(path)).Info("Processing new APK")
	if err := w.handler(ctx, path); err != nil {
		w.logger.WithError(err).WithField("file", path).Error("Failed to handle APK")
		return
	}
}

// waitForStable 等待文件大小在一个采样间隔内不再变化
func (w *APKWatcher) waitForStable(path string) error {
	var lastSize int64 = -1
	for i := 0; i < w.opts.MaxWaits; i++ {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file disappeared: %s", path)
			}
			time.Sleep(w.opts.StableWindow)
			continue
		}

		if info.Size() > 0 && info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()
		time.Sleep(w.opts.StableWindow)
	}
	return fmt.Errorf("file size not stable after %d checks", w.opts.MaxWaits)
}

// Stop 停止监控
func (w *APKWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

// WatchDir 监控目录
func (w *APKWatcher) WatchDir() string {
	return w.watchDir
}

func isAPK(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".apk")
}
