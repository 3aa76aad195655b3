package session

import (
	"context"
	"fmt"
	"time"

	"uiRunner/internal/capture"
)

type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	// StatusErrored - тест не выполнялся: не удалось поднять сессию.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "passed":
		*s = StatusPassed
	case "failed":
		*s = StatusFailed
	case "errored":
		*s = StatusErrored
	default:
		return fmt.Errorf("неизвестный статус %q", string(b))
	}
	return nil
}

// TestOutcome - итог одного теста. Err - исходная причина провала; ошибки
// скриншота и закрытия браузера хранятся отдельно и ее не заменяют.
type TestOutcome struct {
	UnitName    string
	Status      Status
	Err         error
	Artifact    *capture.Artifact
	CaptureErr  error
	TeardownErr error
	StartedAt   time.Time
	Duration    time.Duration
}

// Sink получает итог каждого теста. Отчеты необязательны: Manager работает и без них.
type Sink interface {
	Record(ctx context.Context, out TestOutcome) error
}
