// Package cache 提供 key → text 的快取合約與實作
package cache

// ============================================================================
// 職責說明：
// 1. 定義 Cache 合約：cache / recall / dirty
// 2. 提供檔案系統實作（一個 key 一個檔案）與記憶體實作
// 3. 不做任何時間過期，失效只能透過 Dirty 明確觸發
// ============================================================================

import (
	"errors"
	"fmt"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// ErrInvalidKey key 無法映射為檔名
var ErrInvalidKey = errors.New("cache: invalid key")

// Cache key-value 快取合約
type Cache interface {
	// Cache 寫入（覆蓋）
	Cache(key, value string) error
	// Recall 讀取；ok=false 表示不存在
	Recall(key string) (value string, ok bool, err error)
	// Dirty 強制下次 Recall 回傳不存在
	Dirty(key string) error
}

// InputKey 題目輸入的 key，內容不可變
func InputKey(id types.UnitID) string {
	return fmt.Sprintf("%d-%02d.input", id.Year, id.Day)
}

// StatusKey 題目狀態頁的 key，提交成功後必須 Dirty
func StatusKey(id types.UnitID) string {
	return fmt.Sprintf("%d-%02d.status", id.Year, id.Day)
}
