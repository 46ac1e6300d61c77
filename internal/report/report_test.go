package report

// ============================================================================
// Report Store 測試檔案
// 職責：驗證報告的轉換、原子性寫入、載入、版本驗證與表格輸出
// ============================================================================

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *types.Report {
	return &types.Report{
		RunID:    "3f0c1a52-8d6e-4b1e-9a44-1d0c2a7f6b10",
		Mode:     types.ModeNormal,
		Started:  time.Date(2020, 12, 1, 5, 0, 0, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Units: []types.UnitReport{
			{
				Unit: types.UnitID{Year: 2020, Day: 1},
				Parts: [2]types.PartOutcome{
					{Part: types.Part1, Kind: types.OutcomeAccepted, Computed: "514579", Verdict: types.VerdictAccepted},
					{Part: types.Part2, Kind: types.OutcomeCorrect, Computed: "241861950", Expected: "241861950"},
				},
				Duration: 20 * time.Millisecond,
			},
			{
				Unit: types.UnitID{Year: 2020, Day: 2},
				Parts: [2]types.PartOutcome{
					{Part: types.Part1, Kind: types.OutcomeFailed, Err: errors.New("fetch input: network error")},
					{Part: types.Part2, Kind: types.OutcomeFailed, Err: errors.New("fetch input: network error")},
				},
			},
		},
	}
}

// ============================================================================
// 轉換測試
// ============================================================================

func TestFromReport(t *testing.T) {
	doc := FromReport(sampleReport())

	assert.Equal(t, SchemaVersion, doc.SchemaVer)
	assert.Equal(t, "normal", doc.Mode)
	assert.Equal(t, int64(1500), doc.DurationMS)
	assert.False(t, doc.Success)
	assert.Equal(t, 1, doc.Failed())

	require.Len(t, doc.Units, 2)
	assert.Equal(t, "2020/01", doc.Units[0].Unit)
	assert.True(t, doc.Units[0].Success)
	assert.Equal(t, Part{Part: 1, Outcome: "accepted", Computed: "514579", Verdict: "accepted"}, doc.Units[0].Parts[0])
	assert.Equal(t, "fetch input: network error", doc.Units[1].Parts[1].Error)
}

// ============================================================================
// 檔案存取測試
// ============================================================================

// TestWriteAndLoad 測試寫入與載入報告
func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "last.json")
	store := NewStore(path)
	assert.Equal(t, path, store.Path())

	doc := FromReport(sampleReport())
	require.NoError(t, store.Write(doc))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.RunID, loaded.RunID)
	assert.True(t, doc.Started.Equal(loaded.Started))
	assert.Equal(t, doc.Units, loaded.Units)

	// 不留下臨時檔案
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestWriteOverwrites 第二次寫入覆蓋第一次
func TestWriteOverwrites(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last.json"))
	doc := FromReport(sampleReport())
	require.NoError(t, store.Write(doc))

	doc.RunID = "second"
	require.NoError(t, store.Write(doc))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.RunID)
}

func TestLoadMissing(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "none.json")).Load()
	assert.ErrorIs(t, err, ErrReportNotFound)
}

// TestLoadCorrupted 測試損壞的報告檔案
func TestLoadCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	assert.ErrorIs(t, err, ErrCorruptedReport)
}

// TestLoadIncompatibleVersion 測試版本不相容
func TestLoadIncompatibleVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99}`), 0o644))

	_, err := NewStore(path).Load()
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

// ============================================================================
// 表格輸出測試
// ============================================================================

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FromReport(sampleReport())))

	out := buf.String()
	assert.Contains(t, out, "UNIT")
	assert.Contains(t, out, "2020/01  1     accepted")
	assert.Contains(t, out, "241861950")
	assert.Contains(t, out, "fetch input: network error")
	assert.Contains(t, out, "2 units, 1 failed, 1500ms")
}
