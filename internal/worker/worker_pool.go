// ============================================================================
// aoc-runner Worker Pool - 固定大小的 compute 執行器
// ============================================================================
//
// Package: internal/worker
// 文件: worker_pool.go
// 功能: 將 CPU 密集的 compute 階段與 I/O pipeline 隔離
//
// 設計模式:
//   採用 Worker Pool 模式（工作池模式）：
//   1. 固定數量的 Worker goroutine 持續運行
//   2. 通過共享的任務 channel 分發任務
//   3. 每個任務帶有自己的回覆 channel，呼叫端只等待自己的結果
//
// 架構組件:
//   ┌─────────────┐
//   │ Pipeline N  │ --Compute()--> taskCh
//   └─────────────┘       ↑
//                       reply
//   ┌─────────────┐       │
//   │   Pool      │       │
//   │  ┌────────┐ │       │
//   │  │Worker 1│←── taskCh ──→ task.reply
//   │  │Worker 2│←── taskCh ──→ task.reply
//   │  └────────┘ │
//   └─────────────┘
//
// 背壓:
//   - 同時執行的 compute 數量 = worker 數量
//   - 其他 pipeline 在 Compute() 中排隊，不影響已完成的 I/O 階段
//
// 關閉:
//   Stop() 只關閉 stopCh，不關閉 taskCh，
//   因此 Submit() 與 Stop() 之間不存在向已關閉 channel 發送的情況
//
// ============================================================================

package worker

import (
	"errors"
	"sync"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Pool 代表 Worker 池，管理多個並發的 Worker
type Pool struct {
	workers []*Worker      // Worker 列表
	taskCh  chan Task      // 任務通道
	stopCh  chan struct{}  // 停止訊號
	wg      sync.WaitGroup // 等待所有 Worker 完成
	started bool           // 是否已啟動
	stopped bool           // 是否已停止
	mu      sync.Mutex     // 保護 started 和 stopped 狀態
}

// NewPool 建立新的 Worker Pool
// 參數：
//   - bufferSize: 任務通道的緩衝大小
func NewPool(bufferSize int) *Pool {
	return &Pool{
		workers: make([]*Worker, 0),
		taskCh:  make(chan Task, bufferSize),
		stopCh:  make(chan struct{}),
	}
}

// Start 啟動指定數量的 Worker
func (p *Pool) Start(workerCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pool already started") // 防止重複啟動
	}
	if workerCount < 1 {
		return errors.New("worker count must be positive")
	}

	for i := 0; i < workerCount; i++ {
		worker := newWorker(i, p.taskCh, p.stopCh)
		p.workers = append(p.workers, worker)

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run()
		}(worker)
	}

	p.started = true
	return nil
}

// Submit 提交任務到 Worker Pool，回傳接收結果的通道
func (p *Pool) Submit(task Task) (<-chan Result, error) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil, ErrPoolNotStarted
	}
	if p.stopped {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	task.reply = make(chan Result, 1)

	select {
	case p.taskCh <- task:
		return task.reply, nil
	case <-p.stopCh:
		return nil, ErrPoolClosed
	}
}

// Compute 提交任務並等待結果
// 排隊等待 worker 是 pipeline 唯一的非網路阻塞點
func (p *Pool) Compute(unit types.UnitID, solver types.Solver, input string) (Result, error) {
	reply, err := p.Submit(Task{Unit: unit, Solver: solver, Input: input})
	if err != nil {
		return Result{}, err
	}

	select {
	case res := <-reply:
		return res, nil
	case <-p.stopCh:
		// worker 可能已在停止前送出結果
		select {
		case res := <-reply:
			return res, nil
		default:
			return Result{}, ErrPoolClosed
		}
	}
}

// Stop 關閉 Worker Pool 並等待執行中的任務完成
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
}

// GetWorkerCount 返回當前 Worker 數量
func (p *Pool) GetWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}
