// ============================================================================
// aoc-runner 進度追蹤器 - 每個題目的階段狀態機
// ============================================================================
//
// Package: internal/scheduler
// 文件: tracker.go
// 功能: 由 aggregator 單獨寫入，保存每個題目目前所在的 pipeline 階段
//
// 階段轉換 (State Machine):
//   FetchingInput → FetchingStatus → Computing → Validating → Done
//
// 轉換規則:
//   - 階段只能單調前進，不可回退或重複
//   - 允許跳過中間階段（例如抓取失敗直接 Done）
//   - Done 必須附帶 UnitReport
//
// 並發安全:
//   - 使用 sync.RWMutex 保護
//   - 寫入者只有 aggregator，讀取者為 Snapshot() 的呼叫端
//
// ============================================================================

package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	// 題目重複註冊
	ErrDuplicateUnit = errors.New("unit registered twice")
	// 題目不存在
	ErrUnknownUnit = errors.New("unit not registered")
	// 階段回退或重複
	ErrStageRegression = errors.New("stage did not advance")
	// Done 事件缺少結果
	ErrMissingReport = errors.New("done event without report")
)

// UnitStatus 單一題目的即時狀態
type UnitStatus struct {
	Unit    types.UnitID
	Stage   types.Stage
	Started bool // 是否已收到第一個事件
	Updated time.Time
	Report  *types.UnitReport // 只在 Done 時存在
}

// Tracker 保存所有題目的即時狀態
type Tracker struct {
	mu    sync.RWMutex
	units map[types.UnitID]*UnitStatus
	done  int
}

// NewTracker 建立追蹤器並註冊題目
func NewTracker(ids []types.UnitID) (*Tracker, error) {
	t := &Tracker{units: make(map[types.UnitID]*UnitStatus, len(ids))}
	for _, id := range ids {
		if _, exists := t.units[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnit, id)
		}
		t.units[id] = &UnitStatus{Unit: id}
	}
	return t, nil
}

// Apply 套用一個進度事件，回傳前一個階段（首次事件為 nil）
func (t *Tracker) Apply(ev types.ProgressEvent) (*types.Stage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.units[ev.Unit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, ev.Unit)
	}

	var prev *types.Stage
	if st.Started {
		if ev.Stage <= st.Stage {
			return nil, fmt.Errorf("%w: %s %s -> %s", ErrStageRegression, ev.Unit, st.Stage, ev.Stage)
		}
		p := st.Stage
		prev = &p
	}
	if ev.Stage == types.StageDone {
		if ev.Report == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingReport, ev.Unit)
		}
		r := *ev.Report
		st.Report = &r
		t.done++
	}

	st.Stage = ev.Stage
	st.Started = true
	st.Updated = time.Now()
	return prev, nil
}

// Remaining 尚未到達 Done 的題目數
func (t *Tracker) Remaining() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.units) - t.done
}

// Snapshot 回傳依 UnitID 排序的狀態副本
func (t *Tracker) Snapshot() []UnitStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]UnitStatus, 0, len(t.units))
	for _, st := range t.units {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit.Less(out[j].Unit) })
	return out
}

// Reports 回傳所有已完成題目的結果，依 UnitID 排序
func (t *Tracker) Reports() []types.UnitReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.UnitReport, 0, t.done)
	for _, st := range t.units {
		if st.Report != nil {
			out = append(out, *st.Report)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit.Less(out[j].Unit) })
	return out
}
