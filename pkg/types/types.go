// Package types 定義了 aoc-runner 系統中使用的核心領域模型
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnitID 題目唯一識別碼 (year, day)，同時作為 cache key 與 registry key
type UnitID struct {
	Year int `json:"year"`
	Day  int `json:"day"`
}

// ParseUnitID 解析 "2020/1" 或 "2020-01" 形式的識別碼
func ParseUnitID(s string) (UnitID, error) {
	sep := "/"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	year, day, ok := strings.Cut(strings.TrimSpace(s), sep)
	if !ok {
		return UnitID{}, fmt.Errorf("invalid unit %q: want YEAR/DAY", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return UnitID{}, fmt.Errorf("invalid unit %q: bad year: %w", s, err)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return UnitID{}, fmt.Errorf("invalid unit %q: bad day: %w", s, err)
	}
	if d < 1 || d > 25 {
		return UnitID{}, fmt.Errorf("invalid unit %q: day must be within 1..25", s)
	}
	return UnitID{Year: y, Day: d}, nil
}

// Less 全序比較：先比年，再比日
func (id UnitID) Less(other UnitID) bool {
	if id.Year != other.Year {
		return id.Year < other.Year
	}
	return id.Day < other.Day
}

func (id UnitID) String() string {
	return fmt.Sprintf("%d/%02d", id.Year, id.Day)
}

// Part 題目內的兩個部分
type Part int

const (
	Part1 Part = 1
	Part2 Part = 2
)

// Parts 依序列出所有 Part
var Parts = []Part{Part1, Part2}

func (p Part) String() string {
	return "part" + strconv.Itoa(int(p))
}

// index 將 Part 映射到陣列索引
func (p Part) index() int {
	if p != Part1 && p != Part2 {
		panic(fmt.Sprintf("types: invalid part %d", int(p)))
	}
	return int(p) - 1
}

// ============================================================================
// Compute 結果
// ============================================================================

// PartAnswer 單一 Part 的計算結果：值或錯誤，二擇一
type PartAnswer struct {
	Value string
	Err   error
}

// ComputeResult 每次執行中 compute 階段的唯一產出
type ComputeResult struct {
	Parts [2]PartAnswer
}

// Get 取得指定 Part 的結果
func (r ComputeResult) Get(p Part) PartAnswer {
	return r.Parts[p.index()]
}

// Set 設定指定 Part 的結果
func (r *ComputeResult) Set(p Part, a PartAnswer) {
	r.Parts[p.index()] = a
}

// FailAll 將同一個錯誤附加到兩個 Part
func FailAll(err error) ComputeResult {
	return ComputeResult{Parts: [2]PartAnswer{{Err: err}, {Err: err}}}
}

// ============================================================================
// 遠端狀態
// ============================================================================

// PartStatus 遠端狀態頁中單一 Part 的狀態
type PartStatus struct {
	Solved bool   `json:"solved"`
	Answer string `json:"answer,omitempty"` // 已揭示的正確答案（可能為空）
}

// StatusSnapshot 解析後的題目狀態頁
type StatusSnapshot struct {
	Parts [2]PartStatus `json:"parts"`
}

// Get 取得指定 Part 的狀態
func (s StatusSnapshot) Get(p Part) PartStatus {
	return s.Parts[p.index()]
}

// Set 設定指定 Part 的狀態
func (s *StatusSnapshot) Set(p Part, st PartStatus) {
	s.Parts[p.index()] = st
}

// Verdict 提交答案後遠端的判定
type Verdict string

const (
	VerdictAccepted        Verdict = "accepted"
	VerdictRejectedTooHigh Verdict = "rejected_too_high"
	VerdictRejectedTooLow  Verdict = "rejected_too_low"
	VerdictRejectedOther   Verdict = "rejected"
	VerdictAlreadySolved   Verdict = "already_solved"
	VerdictRateLimited     Verdict = "rate_limited"
	VerdictAuthExpired     Verdict = "auth_expired"
)

// IsRejection 是否為答案錯誤類型的判定
func (v Verdict) IsRejection() bool {
	switch v {
	case VerdictRejectedTooHigh, VerdictRejectedTooLow, VerdictRejectedOther:
		return true
	}
	return false
}

// ValidationMode 驗證模式
type ValidationMode int

const (
	ModeNormal ValidationMode = iota // 提交並持久化
	ModeDryRun                       // 只計算與比較，不提交
)

func (m ValidationMode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "normal"
}

// ============================================================================
// 進度事件
// ============================================================================

// Stage pipeline 階段，單調遞增
type Stage int

const (
	StageFetchingInput Stage = iota
	StageFetchingStatus
	StageComputing
	StageValidating
	StageDone
)

var stageNames = [...]string{
	StageFetchingInput:  "fetching input",
	StageFetchingStatus: "fetching status",
	StageComputing:      "computing",
	StageValidating:     "validating",
	StageDone:           "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// ProgressEvent 單一題目的階段標記，只在 Done 時附帶 Report
type ProgressEvent struct {
	Unit   UnitID
	Stage  Stage
	Report *UnitReport
}

// ============================================================================
// 結果彙整
// ============================================================================

// OutcomeKind 單一 (UnitID, Part) 的終止狀態
type OutcomeKind string

const (
	OutcomeCorrect       OutcomeKind = "correct"  // 與已知答案一致
	OutcomeAccepted      OutcomeKind = "accepted" // 提交後被接受
	OutcomeSkipped       OutcomeKind = "skipped"  // 已解過，略過
	OutcomeDryRun        OutcomeKind = "dry_run"  // 只計算未提交
	OutcomeMismatch      OutcomeKind = "mismatch" // 與已知答案不一致
	OutcomeRejected      OutcomeKind = "rejected"
	OutcomeRateLimited   OutcomeKind = "rate_limited"
	OutcomeAuthExpired   OutcomeKind = "auth_expired"
	OutcomeAlreadySolved OutcomeKind = "already_solved"
	OutcomeFailed        OutcomeKind = "failed" // 網路、解析或計算錯誤
)

// Success 是否算作成功
func (k OutcomeKind) Success() bool {
	switch k {
	case OutcomeCorrect, OutcomeAccepted, OutcomeSkipped, OutcomeDryRun:
		return true
	}
	return false
}

// PartOutcome 單一 Part 的驗證結果
type PartOutcome struct {
	Part     Part
	Kind     OutcomeKind
	Computed string  // 本地計算出的答案
	Expected string  // 遠端已揭示的答案（如有）
	Verdict  Verdict // 實際提交時的判定
	Err      error
}

// UnitReport 單一題目的最終結果
type UnitReport struct {
	Unit     UnitID
	Parts    [2]PartOutcome
	Duration time.Duration
}

// Success 兩個 Part 皆成功
func (r UnitReport) Success() bool {
	for _, p := range r.Parts {
		if !p.Kind.Success() {
			return false
		}
	}
	return true
}

// Report 一次執行的彙整報告
type Report struct {
	RunID    string
	Mode     ValidationMode
	Started  time.Time
	Duration time.Duration
	Units    []UnitReport // 依 UnitID 排序
}

// Success 所有題目皆成功
func (r *Report) Success() bool {
	for _, u := range r.Units {
		if !u.Success() {
			return false
		}
	}
	return true
}

// Failed 回傳失敗的題目數
func (r *Report) Failed() int {
	n := 0
	for _, u := range r.Units {
		if !u.Success() {
			n++
		}
	}
	return n
}
