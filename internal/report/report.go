package report

// ============================================================================
// 職責說明：
// 1. 將一次執行的 Report 轉為可序列化的 JSON 文件
// 2. 使用原子性寫入（temp file + rename）防止損壞
// 3. 載入時驗證 schema 版本相容性
// 4. 以表格形式輸出報告
// ============================================================================

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// SchemaVersion 報告檔案格式版本
const SchemaVersion = 1

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	ErrCorruptedReport     = errors.New("report file is corrupted")
	ErrIncompatibleVersion = errors.New("report schema version is incompatible")
	ErrReportNotFound      = errors.New("report file not found")
)

// ============================================================================
// 資料結構定義
// ============================================================================

// Document 報告的 JSON 形式，錯誤以字串保存
type Document struct {
	SchemaVer  int       `json:"schema_version"`
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Units      []Unit    `json:"units"`
}

// Unit 單一題目的結果
type Unit struct {
	Unit       string `json:"unit"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"duration_ms"`
	Parts      []Part `json:"parts"`
}

// Part 單一 Part 的結果
type Part struct {
	Part     int    `json:"part"`
	Outcome  string `json:"outcome"`
	Computed string `json:"computed,omitempty"`
	Expected string `json:"expected,omitempty"`
	Verdict  string `json:"verdict,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FromReport 將執行結果轉為 Document
func FromReport(r *types.Report) Document {
	doc := Document{
		SchemaVer:  SchemaVersion,
		RunID:      r.RunID,
		Mode:       r.Mode.String(),
		Started:    r.Started,
		DurationMS: r.Duration.Milliseconds(),
		Success:    r.Success(),
		Units:      make([]Unit, 0, len(r.Units)),
	}
	for _, u := range r.Units {
		unit := Unit{
			Unit:       u.Unit.String(),
			Success:    u.Success(),
			DurationMS: u.Duration.Milliseconds(),
		}
		for _, p := range u.Parts {
			part := Part{
				Part:     int(p.Part),
				Outcome:  string(p.Kind),
				Computed: p.Computed,
				Expected: p.Expected,
				Verdict:  string(p.Verdict),
			}
			if p.Err != nil {
				part.Error = p.Err.Error()
			}
			unit.Parts = append(unit.Parts, part)
		}
		doc.Units = append(doc.Units, unit)
	}
	return doc
}

// Failed 回傳失敗的題目數
func (d Document) Failed() int {
	n := 0
	for _, u := range d.Units {
		if !u.Success {
			n++
		}
	}
	return n
}

// ============================================================================
// 檔案存取
// ============================================================================

// Store 報告檔案管理器
type Store struct {
	path string     // 報告檔案路徑
	mu   sync.Mutex // 保護檔案操作
}

// NewStore 建立報告檔案管理器
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 取得報告檔案路徑
func (s *Store) Path() string {
	return s.path
}

// Write 原子性寫入報告
//
// 1. 寫入同目錄下的臨時檔案
// 2. 使用 os.Rename 原子性替換原始檔案
func (s *Store) Write(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.SchemaVer = SchemaVersion

	// 帶縮排，方便人工閱讀
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp report: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename report: %w", err)
	}
	return nil
}

// Load 載入報告並驗證版本
func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc Document
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, fmt.Errorf("%w: %s", ErrReportNotFound, s.path)
		}
		return doc, fmt.Errorf("failed to read report: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorruptedReport, err)
	}
	if doc.SchemaVer != SchemaVersion {
		return doc, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, doc.SchemaVer, SchemaVersion)
	}
	return doc, nil
}

// ============================================================================
// 表格輸出
// ============================================================================

// Render 以表格輸出報告
func Render(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tPART\tOUTCOME\tANSWER\tDETAIL")
	for _, u := range doc.Units {
		for _, p := range u.Parts {
			detail := p.Error
			if detail == "" && p.Verdict != "" {
				detail = p.Verdict
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", u.Unit, p.Part, p.Outcome, p.Computed, detail)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nrun %s (%s): %d units, %d failed, %dms\n",
		doc.RunID, doc.Mode, len(doc.Units), doc.Failed(), doc.DurationMS)
	return err
}
