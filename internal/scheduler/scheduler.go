// ============================================================================
// aoc-runner 排程器 - 系統核心協調器
// ============================================================================
//
// Package: internal/scheduler
// 文件: scheduler.go
// 功能: 為每個題目啟動一條 pipeline，彙整進度並產生最終報告
//
// 架構設計:
//   每個題目一條獨立的 goroutine，依序執行固定的四個階段：
//   1. FetchingInput  - 透過快取 client 取得輸入（網路）
//   2. FetchingStatus - 取得題目狀態（網路）
//   3. Computing      - 交給固定大小的 worker pool（CPU）
//   4. Validating     - 逐一驗證 Part，必要時提交答案（網路）
//
//   ┌──────────┐  ProgressEvent + ack   ┌────────────┐
//   │Pipeline 1│ ─────────┐             │            │
//   │Pipeline 2│ ─────────┼──events──→  │ Aggregator │ → Tracker → Report
//   │Pipeline N│ ─────────┘             │            │
//   └──────────┘                        └────────────┘
//
// 順序保證:
//   每個事件帶一個 ack channel，aggregator 套用事件後關閉它；
//   pipeline 等到 ack 才進入下一個階段。
//   不同題目之間沒有順序保證。
//
// 失敗隔離:
//   任何階段的失敗只記錄為該題目的終止結果，不會取消其他 pipeline。
//   沒有取消機制：每條 pipeline 必定走到 Done。
//
// ============================================================================

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/internal/remote"
	"github.com/ChuLiYu/aoc-runner/internal/validator"
	"github.com/ChuLiYu/aoc-runner/internal/worker"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// ============================================================================
// 資料結構定義
// ============================================================================

// Computer compute 邊界，由 worker.Pool 實作
type Computer interface {
	Compute(unit types.UnitID, solver types.Solver, input string) (worker.Result, error)
}

// Config Scheduler 配置
type Config struct {
	Computer   Computer                  // compute 邊界（worker pool）
	Client     remote.Client             // 通常為 CachingClient
	Validator  *validator.Validator      // 驗證狀態機
	Metrics    *metrics.Collector        // 可為 nil
	OnProgress func(types.ProgressEvent) // 進度輸出，由 aggregator 呼叫，可為 nil
}

// Scheduler 驅動所有 pipeline
type Scheduler struct {
	cfg Config
	log *slog.Logger

	mu      sync.RWMutex
	tracker *Tracker // 目前這次執行的狀態
}

// envelope 事件與其確認通道
type envelope struct {
	event types.ProgressEvent
	ack   chan struct{}
}

// ============================================================================
// 核心方法實作
// ============================================================================

// New 建立新的 Scheduler 實例
func New(cfg Config) (*Scheduler, error) {
	if cfg.Computer == nil {
		return nil, errors.New("scheduler: computer is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("scheduler: client is required")
	}
	if cfg.Validator == nil {
		return nil, errors.New("scheduler: validator is required")
	}
	return &Scheduler{
		cfg: cfg,
		log: slog.Default().With("component", "scheduler"),
	}, nil
}

// Run 執行所有題目直到每一條 pipeline 都到達 Done
//
// 回傳的 error 只代表無法開始執行（例如題目重複）；
// 個別題目的失敗記錄在 Report 中。
func (s *Scheduler) Run(ctx context.Context, units []types.Unit) (*types.Report, error) {
	ids := make([]types.UnitID, len(units))
	for i, u := range units {
		if u.Solver == nil {
			return nil, fmt.Errorf("unit %s has no solver", u.ID)
		}
		ids[i] = u.ID
	}
	tracker, err := NewTracker(ids)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tracker = tracker
	s.mu.Unlock()

	report := &types.Report{
		RunID:   uuid.NewString(),
		Mode:    s.cfg.Validator.Options().Mode,
		Started: time.Now(),
	}
	s.log.Info("Run started", "run_id", report.RunID, "units", len(units), "mode", report.Mode)

	// 1. 啟動 aggregator
	events := make(chan envelope, len(units))
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		s.aggregate(tracker, events)
	}()

	// 2. 每個題目一條 pipeline
	var wg sync.WaitGroup
	for _, u := range units {
		wg.Add(1)
		go func(u types.Unit) {
			defer wg.Done()
			s.pipeline(ctx, u, events)
		}(u)
	}

	// 3. 所有 pipeline 的 Done 都已被確認
	wg.Wait()
	close(events)
	<-aggDone

	report.Units = tracker.Reports()
	report.Duration = time.Since(report.Started)

	s.log.Info("Run finished",
		"run_id", report.RunID,
		"duration", report.Duration,
		"failed", report.Failed())
	return report, nil
}

// Snapshot 回傳目前執行的即時狀態，尚未執行時為 nil
func (s *Scheduler) Snapshot() []UnitStatus {
	s.mu.RLock()
	tracker := s.tracker
	s.mu.RUnlock()

	if tracker == nil {
		return nil
	}
	return tracker.Snapshot()
}

// aggregate 唯一的事件消費者
func (s *Scheduler) aggregate(tracker *Tracker, events <-chan envelope) {
	for env := range events {
		ev := env.event
		prev, err := tracker.Apply(ev)
		if err != nil {
			// pipeline 只會送出單調遞增的事件，這裡代表程式錯誤
			s.log.Error("Dropping progress event", "unit", ev.Unit, "stage", ev.Stage, "error", err)
		} else {
			s.cfg.Metrics.StageTransition(prev, ev.Stage)
			if ev.Stage == types.StageDone {
				s.cfg.Metrics.RecordUnitFinished(*ev.Report)
			}
			if s.cfg.OnProgress != nil {
				s.cfg.OnProgress(ev)
			}
		}
		close(env.ack)
	}
}

// emit 送出事件並等待 aggregator 套用
func emit(events chan<- envelope, ev types.ProgressEvent) {
	ack := make(chan struct{})
	events <- envelope{event: ev, ack: ack}
	<-ack
}

// pipeline 單一題目的固定階段序列
func (s *Scheduler) pipeline(ctx context.Context, unit types.Unit, events chan<- envelope) {
	start := time.Now()
	report := types.UnitReport{Unit: unit.ID}
	for i, part := range types.Parts {
		report.Parts[i].Part = part
	}

	// 已有結果的 Part 數，panic 時保留這些結果
	validated := 0

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Pipeline panicked", "unit", unit.ID, "panic", r)
			failAll(report.Parts[validated:], fmt.Errorf("pipeline panic: %v", r))
		}
		report.Duration = time.Since(start)
		emit(events, types.ProgressEvent{Unit: unit.ID, Stage: types.StageDone, Report: &report})
	}()

	// 1. 取得輸入
	emit(events, types.ProgressEvent{Unit: unit.ID, Stage: types.StageFetchingInput})
	input, err := s.cfg.Client.GetInput(ctx, unit.ID)
	if err != nil {
		s.log.Warn("Fetch input failed", "unit", unit.ID, "error", err)
		failAll(report.Parts[:], fmt.Errorf("fetch input: %w", err))
		return
	}

	// 2. 取得狀態
	emit(events, types.ProgressEvent{Unit: unit.ID, Stage: types.StageFetchingStatus})
	status, err := s.cfg.Client.GetStatus(ctx, unit.ID)
	if err != nil {
		s.log.Warn("Fetch status failed", "unit", unit.ID, "error", err)
		failAll(report.Parts[:], fmt.Errorf("fetch status: %w", err))
		return
	}

	// 3. 計算（所有 Part 都會被略過時不佔用 worker）
	emit(events, types.ProgressEvent{Unit: unit.ID, Stage: types.StageComputing})
	answers := s.compute(unit, input, status)

	// 4. 逐一驗證 Part，彼此獨立
	emit(events, types.ProgressEvent{Unit: unit.ID, Stage: types.StageValidating})
	for i, part := range types.Parts {
		report.Parts[i] = s.cfg.Validator.Validate(ctx, unit.ID, part, status, answers.Get(part))
		validated = i + 1
	}
}

func (s *Scheduler) compute(unit types.Unit, input string, status types.StatusSnapshot) types.ComputeResult {
	skipAll := true
	for _, part := range types.Parts {
		if !s.cfg.Validator.Skips(status, part) {
			skipAll = false
		}
	}
	if skipAll {
		s.log.Debug("All parts solved, skipping compute", "unit", unit.ID)
		return types.ComputeResult{}
	}

	res, err := s.cfg.Computer.Compute(unit.ID, unit.Solver, input)
	if err != nil {
		return types.FailAll(fmt.Errorf("compute: %w", err))
	}
	s.cfg.Metrics.RecordCompute(res.Duration, res.Aborted)
	if res.Aborted {
		s.log.Error("Solver aborted", "unit", unit.ID, "error", res.Answers.Get(types.Part1).Err)
	}
	return res.Answers
}

// failAll 以同一個錯誤終止給定的 Part
func failAll(parts []types.PartOutcome, err error) {
	kind := types.OutcomeFailed
	if errors.Is(err, remote.ErrAuthExpired) {
		kind = types.OutcomeAuthExpired
	}
	for i := range parts {
		parts[i].Kind = kind
		parts[i].Err = err
	}
}
