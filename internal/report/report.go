// Package report собирает итоги тестов прогона. Отчеты только дополняют
// Manager: без них тесты, скриншоты и закрытие браузера работают так же.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"uiRunner/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Result struct {
	Unit         string         `json:"unit"`
	Status       session.Status `json:"status"`
	Error        string         `json:"error,omitempty"`
	Screenshot   string         `json:"screenshot,omitempty"`
	CaptureError string         `json:"capture_error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	DurationMs   int64          `json:"duration_ms"`
}

func NewResult(out session.TestOutcome) Result {
	r := Result{
		Unit:       out.UnitName,
		Status:     out.Status,
		StartedAt:  out.StartedAt,
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	if out.Artifact != nil {
		r.Screenshot = out.Artifact.Path
	}
	if out.CaptureErr != nil {
		r.CaptureError = out.CaptureErr.Error()
	}
	return r
}

type Summary struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Total   int       `json:"total"`
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Errored int       `json:"errored"`
	Results []Result  `json:"results"`
}

// Run накапливает результаты одного прогона; безопасен для параллельных тестов.
type Run struct {
	ID      string
	Started time.Time

	mu      sync.Mutex
	results []Result
}

func NewRun() *Run {
	return &Run{ID: uuid.NewString(), Started: time.Now()}
}

func (r *Run) Record(ctx context.Context, out session.TestOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, NewResult(out))
	return nil
}

func (r *Run) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		RunID:   r.ID,
		Started: r.Started,
		Total:   len(r.results),
		Results: append([]Result(nil), r.results...),
	}
	for _, res := range r.results {
		switch res.Status {
		case session.StatusPassed:
			s.Passed++
		case session.StatusFailed:
			s.Failed++
		case session.StatusErrored:
			s.Errored++
		}
	}
	return s
}

// WriteJSON сохраняет сводку прогона в path.
func (r *Run) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("сводка прогона: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("каталог отчета: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

type multi []session.Sink

// Multi рассылает итог во все sink'и; отказ одного не мешает остальным.
func Multi(sinks ...session.Sink) session.Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Record(ctx context.Context, out session.TestOutcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONSink перезаписывает сводку после каждого теста, чтобы файл был актуален
// даже при аварийном завершении прогона.
type JSONSink struct {
	Run  *Run
	Path string

	mu sync.Mutex
}

func NewJSONSink(run *Run, path string) *JSONSink {
	return &JSONSink{Run: run, Path: path}
}

func (s *JSONSink) Record(ctx context.Context, out session.TestOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Run.Record(ctx, out); err != nil {
		return err
	}
	return s.Run.WriteJSON(s.Path)
}

// LogSink пишет итог теста одной строкой.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, out session.TestOutcome) error {
	r := NewResult(out)
	fields := []zap.Field{
		zap.String("unit", r.Unit),
		zap.Stringer("status", r.Status),
		zap.Int64("duration_ms", r.DurationMs),
	}
	if r.Error != "" {
		fields = append(fields, zap.String("error", r.Error))
	}
	if r.Screenshot != "" {
		fields = append(fields, zap.String("screenshot", r.Screenshot))
	}
	if r.CaptureError != "" {
		fields = append(fields, zap.String("capture_error", r.CaptureError))
	}
	s.log.Info("Результат теста", fields...)
	return nil
}
