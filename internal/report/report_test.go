package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"uiRunner/internal/capture"
	"uiRunner/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewResult(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := session.TestOutcome{
		UnitName:   "TestLogin/invalid",
		Status:     session.StatusFailed,
		Err:        errors.New("expected error message"),
		Artifact:   &capture.Artifact{Path: "screenshots/TestLogin_invalid_20250301_120000.png"},
		CaptureErr: nil,
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
	}

	r := NewResult(out)

	assert.Equal(t, "TestLogin/invalid", r.Unit)
	assert.Equal(t, session.StatusFailed, r.Status)
	assert.Equal(t, "expected error message", r.Error)
	assert.Equal(t, out.Artifact.Path, r.Screenshot)
	assert.Empty(t, r.CaptureError)
	assert.Equal(t, started, r.StartedAt)
	assert.Equal(t, int64(1500), r.DurationMs)
}

func TestRunSummaryCounts(t *testing.T) {
	run := NewRun()
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, run.Record(ctx, session.TestOutcome{UnitName: "a", Status: session.StatusPassed}))
	require.NoError(t, run.Record(ctx, session.TestOutcome{UnitName: "b", Status: session.StatusFailed}))
	require.NoError(t, run.Record(ctx, session.TestOutcome{UnitName: "c", Status: session.StatusFailed}))
	require.NoError(t, run.Record(ctx, session.TestOutcome{UnitName: "d", Status: session.StatusErrored}))

	s := run.Summary()
	assert.Equal(t, run.ID, s.RunID)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Errored)
	assert.Len(t, s.Results, 4)
}

func TestRunConcurrentRecord(t *testing.T) {
	run := NewRun()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = run.Record(context.Background(), session.TestOutcome{Status: session.StatusPassed})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, run.Summary().Passed)
}

func TestRunWriteJSON(t *testing.T) {
	run := NewRun()
	require.NoError(t, run.Record(context.Background(), session.TestOutcome{
		UnitName:   "TestLogin/invalid",
		Status:     session.StatusFailed,
		Err:        session.ErrTestFailed,
		CaptureErr: errors.New("disk full"),
	}))

	path := filepath.Join(t.TempDir(), "reports", "summary.json")
	require.NoError(t, run.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, run.ID, got.RunID)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Results, 1)
	assert.Equal(t, session.StatusFailed, got.Results[0].Status)
	assert.Equal(t, "disk full", got.Results[0].CaptureError)
	assert.Contains(t, string(data), `"status": "failed"`)
}

type failingSink struct{ err error }

func (f failingSink) Record(context.Context, session.TestOutcome) error { return f.err }

func TestMultiDeliversToAll(t *testing.T) {
	first, second := NewRun(), NewRun()
	boom := errors.New("db down")

	sink := Multi(first, nil, failingSink{err: boom}, second)
	err := sink.Record(context.Background(), session.TestOutcome{UnitName: "a", Status: session.StatusPassed})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.Summary().Total)
	assert.Equal(t, 1, second.Summary().Total)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi().Record(context.Background(), session.TestOutcome{}))
}

func TestJSONSinkKeepsFileCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	sink := NewJSONSink(NewRun(), path)
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, session.TestOutcome{UnitName: "a", Status: session.StatusPassed}))
	require.NoError(t, sink.Record(ctx, session.TestOutcome{UnitName: "b", Status: session.StatusFailed}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Failed)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Record(context.Background(), session.TestOutcome{
		UnitName: "TestLogin/invalid",
		Status:   session.StatusFailed,
		Err:      session.ErrTestFailed,
		Artifact: &capture.Artifact{Path: "screenshots/a.png"},
	}))

	entries := logs.FilterMessage("Результат теста").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "TestLogin/invalid", fields["unit"])
	assert.Equal(t, "failed", fields["status"])
	assert.Equal(t, "screenshots/a.png", fields["screenshot"])
	assert.NotContains(t, fields, "capture_error")
}
