package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uiRunner/internal/session"

	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("прогон не найден")

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) CreateRun(ctx context.Context, run *TestRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *ResultRepository) FinishRun(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&TestRun{}).
		Where("id = ?", id).
		Update("finished_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *ResultRepository) GetRun(ctx context.Context, id string) (*TestRun, error) {
	var run TestRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *ResultRepository) ListRuns(ctx context.Context, limit, offset int) ([]TestRun, error) {
	var runs []TestRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *ResultRepository) SaveResult(ctx context.Context, res *TestResult) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *ResultRepository) ListResults(ctx context.Context, runID string) ([]TestResult, error) {
	var results []TestResult
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// resultSaver - то, что нужно Sink от репозитория.
type resultSaver interface {
	SaveResult(ctx context.Context, res *TestResult) error
}

// Sink пишет итоги тестов прогона runID в БД.
type Sink struct {
	repo  resultSaver
	runID string
}

func NewSink(repo resultSaver, runID string) *Sink {
	return &Sink{repo: repo, runID: runID}
}

func (s *Sink) Record(ctx context.Context, out session.TestOutcome) error {
	res := ResultFromOutcome(s.runID, out)
	if err := s.repo.SaveResult(ctx, &res); err != nil {
		return fmt.Errorf("сохранение результата %s: %w", out.UnitName, err)
	}
	return nil
}

func ResultFromOutcome(runID string, out session.TestOutcome) TestResult {
	res := TestResult{
		RunID:      runID,
		Unit:       out.UnitName,
		Status:     out.Status.String(),
		Error:      errText(out.Err),
		StartedAt:  out.StartedAt,
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Artifact != nil {
		res.ScreenshotPath = out.Artifact.Path
	}
	res.CaptureError = errText(out.CaptureErr)
	res.TeardownError = errText(out.TeardownErr)
	return res
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
