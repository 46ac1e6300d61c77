package cache

// ============================================================================
// FileStore - 檔案系統快取
// ============================================================================
//
// 佈局：
//   <dir>/<key>        檔案內容即為快取值，無任何 header
//
// 寫入使用與快照相同的原子流程（temp file + rename），
// 同一個 key 的並發讀寫最多造成重複工作，不會讀到半寫入的內容。
//
// ============================================================================

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultNamespace 預設的 temp 目錄命名空間
const DefaultNamespace = "aoc-runner"

// DefaultDir 回傳 <os.TempDir()>/aoc-runner
func DefaultDir() string {
	return filepath.Join(os.TempDir(), DefaultNamespace)
}

// FileStore 每個 key 一個檔案
type FileStore struct {
	dir string
}

// NewFileStore 建立檔案快取；dir 為空時使用 DefaultDir()
// 目錄在第一次寫入時才建立
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileStore{dir: dir}
}

// Dir 回傳快取目錄（用於測試與除錯）
func (s *FileStore) Dir() string {
	return s.dir
}

// Empty 遞迴刪除整個命名空間，保證冷啟動
func (s *FileStore) Empty() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("cache: failed to empty %s: %w", s.dir, err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Cache 建立目錄（如不存在）並覆蓋寫入
func (s *FileStore) Cache(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: failed to create %s: %w", s.dir, err)
	}

	// 1. 寫入臨時檔案
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cache: failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: failed to close %s: %w", key, err)
	}

	// 2. 原子性重新命名
	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: failed to rename %s: %w", key, err)
	}
	return nil
}

// Recall 讀取檔案，不存在則回傳 ok=false
func (s *FileStore) Recall(key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache: failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Dirty 盡力刪除，忽略檔案不存在
func (s *FileStore) Dirty(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: failed to dirty %s: %w", key, err)
	}
	return nil
}
