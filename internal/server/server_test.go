package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/internal/scheduler"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

type staticProgress []scheduler.UnitStatus

func (p staticProgress) Snapshot() []scheduler.UnitStatus { return p }

func TestProgressEndpoint(t *testing.T) {
	report := &types.UnitReport{
		Unit: types.UnitID{Year: 2020, Day: 1},
		Parts: [2]types.PartOutcome{
			{Part: types.Part1, Kind: types.OutcomeAccepted},
			{Part: types.Part2, Kind: types.OutcomeMismatch},
		},
	}
	progress := staticProgress{
		{Unit: types.UnitID{Year: 2020, Day: 1}, Stage: types.StageDone, Started: true, Updated: time.Now(), Report: report},
		{Unit: types.UnitID{Year: 2020, Day: 2}, Stage: types.StageComputing, Started: true, Updated: time.Now()},
		{Unit: types.UnitID{Year: 2020, Day: 3}},
	}

	srv := httptest.NewServer(New(0, progress, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var views []UnitView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 3)

	assert.Equal(t, "2020/01", views[0].Unit)
	assert.Equal(t, "done", views[0].Stage)
	assert.Equal(t, []string{"accepted", "mismatch"}, views[0].Outcomes)
	require.NotNil(t, views[0].Success)
	assert.False(t, *views[0].Success)

	assert.Equal(t, "computing", views[1].Stage)
	assert.Nil(t, views[1].Success)
	assert.Equal(t, "pending", views[2].Stage)
}

func TestProgressWithoutSource(t *testing.T) {
	srv := httptest.NewServer(New(0, nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, "[]", string(body))

	post, err := http.Post(srv.URL+"/progress", "text/plain", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)
	m.RecordSubmission(types.VerdictAccepted)

	srv := httptest.NewServer(New(0, nil, reg).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `aoc_submissions_total{verdict="accepted"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
