// Package middleware gin 中间件与 Prometheus 指标
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// PrometheusMetrics Prometheus 指标收集器
type PrometheusMetrics struct {
	logger *logrus.Logger

	// HTTP 请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 分析指标
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec

	// 识别指标
	librariesMatchedTotal *prometheus.CounterVec
	obfuscatedNamesTotal  prometheus.Counter

	// 解码/扫描健壮性指标
	skippedWordsTotal prometheus.Counter
	ignoredPathsTotal prometheus.Counter

	// Worker/队列指标
	workerQueueSize prometheus.Gauge

	// 规则目录指标
	catalogRulesTotal prometheus.Gauge
}

// NewPrometheusMetrics 创建指标收集器并注册到默认 registry
func NewPrometheusMetrics(logger *logrus.Logger, namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "libdetect"
	}

	pm := &PrometheusMetrics{
		logger: logger,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analyses by final status",
			},
			[]string{"status"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "End-to-end analysis duration",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		librariesMatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "libraries_matched_total",
				Help:      "Total matched libraries by signal kind",
			},
			[]string{"kind"},
		),
		obfuscatedNamesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "obfuscated_names_total",
				Help:      "Native library names classified as obfuscated/hash",
			},
		),
		skippedWordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_words_total",
				Help:      "Unknown 32-bit words skipped by the binary XML decoder",
			},
		),
		ignoredPathsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ignored_paths_total",
				Help:      "Archive paths under lib/ ignored by the native library scanner",
			},
		),
		workerQueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_queue_size",
				Help:      "Analyze tasks waiting in the worker queue",
			},
		),
		catalogRulesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_rules_total",
				Help:      "Library rules currently loaded in the catalog table",
			},
		),
	}

	prometheus.MustRegister(
		pm.httpRequestsTotal,
		pm.httpRequestDuration,
		pm.analysesTotal,
		pm.analysisDuration,
		pm.librariesMatchedTotal,
		pm.obfuscatedNamesTotal,
		pm.skippedWordsTotal,
		pm.ignoredPathsTotal,
		pm.workerQueueSize,
		pm.catalogRulesTotal,
	)
	return pm
}

// HTTPMiddleware 记录每个请求的计数与耗时
func (pm *PrometheusMetrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		pm.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		pm.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics 端点
func (pm *PrometheusMetrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordAnalysis 记录一次分析的终态与耗时
func (pm *PrometheusMetrics) RecordAnalysis(status string, duration time.Duration) {
	pm.analysesTotal.WithLabelValues(status).Inc()
	pm.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordLibrariesMatched 记录命中的库数量
func (pm *PrometheusMetrics) RecordLibrariesMatched(kind string, count int) {
	if count > 0 {
		pm.librariesMatchedTotal.WithLabelValues(kind).Add(float64(count))
	}
}

// RecordDecodeStats 记录解码器与扫描器的健壮性计数
func (pm *PrometheusMetrics) RecordDecodeStats(skippedWords, ignoredPaths, obfuscated int) {
	if skippedWords > 0 {
		pm.skippedWordsTotal.Add(float64(skippedWords))
	}
	if ignoredPaths > 0 {
		pm.ignoredPathsTotal.Add(float64(ignoredPaths))
	}
	if obfuscated > 0 {
		pm.obfuscatedNamesTotal.Add(float64(obfuscated))
	}
}

// UpdateWorkerQueueSize 更新队列积压
func (pm *PrometheusMetrics) UpdateWorkerQueueSize(size int) {
	pm.workerQueueSize.Set(float64(size))
}

// UpdateCatalogRules 更新规则条数
func (pm *PrometheusMetrics) UpdateCatalogRules(count int) {
	pm.catalogRulesTotal.Set(float64(count))
}
