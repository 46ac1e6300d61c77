package worker

import (
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Task 代表一次 compute：解析輸入並計算兩個 Part
type Task struct {
	Unit   types.UnitID // 題目識別碼
	Solver types.Solver // 題目的解題能力
	Input  string       // 原始輸入

	reply chan Result // 單一任務的回覆通道（容量 1）
}

// Result 代表任務執行結果
type Result struct {
	Unit     types.UnitID        // 題目識別碼
	Answers  types.ComputeResult // 兩個 Part 的結果
	Aborted  bool                // solver 是否異常終止
	Duration time.Duration       // 實際執行時間
}
