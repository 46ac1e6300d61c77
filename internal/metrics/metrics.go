// ============================================================================
// aoc-runner Metrics - Prometheus 監控指標
// ============================================================================
//
// Package: internal/metrics
// 文件: metrics.go
// 功能: 收集 pipeline、快取與提交的運行指標
//
// 指標分類:
//
//   1. 計數器 (Counter)：
//      - aoc_units_finished_total{result}: 完成的題目數（success / failure）
//      - aoc_part_outcomes_total{outcome}: 每個 Part 的終止狀態
//      - aoc_submissions_total{verdict}: 提交次數，依判定分類
//      - aoc_cache_requests_total{resource,result}: 快取命中 / 未命中
//      - aoc_compute_aborts_total: solver panic 次數
//
//   2. 分佈 (Histogram)：
//      - aoc_compute_seconds: compute 階段耗時
//      - aoc_remote_request_seconds{op}: 遠端請求耗時
//
//   3. 瞬時值 (Gauge)：
//      - aoc_units_in_stage{stage}: 各階段中的題目數
//
// HTTP 端點:
//   Handler() 由 internal/server 掛在 /metrics，只在 run 期間存在
//
// ============================================================================

package metrics

import (
	"net/http"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector Prometheus 指標收集器
// nil *Collector 的所有方法皆為 no-op，方便測試與停用監控
type Collector struct {
	unitsFinished  *prometheus.CounterVec
	partOutcomes   *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	cacheRequests  *prometheus.CounterVec
	computeAborts  prometheus.Counter
	computeLatency prometheus.Histogram
	remoteLatency  *prometheus.HistogramVec
	unitsInStage   *prometheus.GaugeVec
}

// NewCollector 創建指標收集器並註冊到 reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		unitsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoc_units_finished_total",
			Help: "Total number of unit pipelines that reached a terminal state",
		}, []string{"result"}),
		partOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoc_part_outcomes_total",
			Help: "Terminal validation outcomes per part",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoc_submissions_total",
			Help: "Answers submitted to the remote judge, by verdict",
		}, []string{"verdict"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoc_cache_requests_total",
			Help: "Cache lookups by resource kind and result",
		}, []string{"resource", "result"}),
		computeAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoc_compute_aborts_total",
			Help: "Solver panics caught at the worker pool edge",
		}),
		computeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aoc_compute_seconds",
			Help:    "Time spent parsing and solving one unit",
			Buckets: prometheus.DefBuckets,
		}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aoc_remote_request_seconds",
			Help:    "Latency of remote judge requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		unitsInStage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aoc_units_in_stage",
			Help: "Current number of units in each pipeline stage",
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(
			c.unitsFinished,
			c.partOutcomes,
			c.submissions,
			c.cacheRequests,
			c.computeAborts,
			c.computeLatency,
			c.remoteLatency,
			c.unitsInStage,
		)
	}

	return c
}

// RecordUnitFinished 記錄題目完成
func (c *Collector) RecordUnitFinished(report types.UnitReport) {
	if c == nil {
		return
	}
	result := "success"
	if !report.Success() {
		result = "failure"
	}
	c.unitsFinished.WithLabelValues(result).Inc()
	for _, p := range report.Parts {
		c.partOutcomes.WithLabelValues(string(p.Kind)).Inc()
	}
}

// RecordSubmission 記錄一次提交
func (c *Collector) RecordSubmission(v types.Verdict) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(string(v)).Inc()
}

// RecordCache 記錄快取查詢結果
func (c *Collector) RecordCache(resource string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheRequests.WithLabelValues(resource, result).Inc()
}

// RecordCompute 記錄 compute 耗時
func (c *Collector) RecordCompute(d time.Duration, aborted bool) {
	if c == nil {
		return
	}
	c.computeLatency.Observe(d.Seconds())
	if aborted {
		c.computeAborts.Inc()
	}
}

// ObserveRemote 記錄遠端請求耗時
func (c *Collector) ObserveRemote(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.remoteLatency.WithLabelValues(op).Observe(d.Seconds())
}

// StageTransition 更新階段 gauge：from 減一，to 加一
func (c *Collector) StageTransition(from *types.Stage, to types.Stage) {
	if c == nil {
		return
	}
	if from != nil {
		c.unitsInStage.WithLabelValues(from.String()).Dec()
	}
	if to != types.StageDone {
		c.unitsInStage.WithLabelValues(to.String()).Inc()
	}
}

// Handler 回傳 gatherer 的 /metrics handler
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
