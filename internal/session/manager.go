// Package session управляет жизненным циклом браузера для одного теста:
// создание, выполнение, скриншот при провале и гарантированное закрытие.
package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"uiRunner/internal/browser"
	"uiRunner/internal/capture"
	"uiRunner/internal/page"

	"go.uber.org/zap"
)

type Config struct {
	Browser browser.Config
	Page    page.Options
	// Sink может быть nil.
	Sink Sink
	Now  func() time.Time
}

// Manager не хранит состояния между тестами, поэтому один экземпляр
// обслуживает параллельные тесты.
type Manager struct {
	launcher browser.Launcher
	capturer capture.Capturer
	log      *zap.Logger
	cfg      Config
}

func NewManager(launcher browser.Launcher, capturer capture.Capturer, log *zap.Logger, cfg Config) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{
		launcher: launcher,
		capturer: capturer,
		log:      log,
		cfg:      cfg,
	}
}

// Handle - открытая сессия вместе с тем, что нужно для ее завершения.
type Handle struct {
	Session *Session

	startedAt time.Time
	once      sync.Once
	outcome   TestOutcome
}

// Open создает сессию. Ошибка запуска браузера фатальна: Running и Capturing
// пропускаются, закрывать нечего.
func (m *Manager) Open(ctx context.Context, unit string) (*Handle, error) {
	started := m.cfg.Now()
	log := m.log.With(zap.String("unit", unit))
	log.Info("Создание сессии", zap.Stringer("state", StateCreated), zap.String("browser", string(m.cfg.Browser.Kind)))

	drv, err := m.launcher.Launch(ctx, m.cfg.Browser)
	if err != nil {
		infraErr := &InfrastructureError{Stage: "запуск браузера", Unit: unit, Err: err}
		log.Error("Не удалось запустить браузер", zap.Error(err))
		m.record(ctx, TestOutcome{
			UnitName:  unit,
			Status:    StatusErrored,
			Err:       infraErr,
			StartedAt: started,
			Duration:  m.cfg.Now().Sub(started),
		})
		return nil, infraErr
	}

	s := newSession(unit, drv)
	s.page = page.NewBase(s, m.log.Named("page").With(zap.String("unit", unit)), m.cfg.Page)
	s.setState(StateRunning)
	log.Info("Browser launched", zap.Stringer("state", StateRunning), zap.String("browser", string(m.cfg.Browser.Kind)))

	return &Handle{Session: s, startedAt: started}, nil
}

// Finish завершает тест с результатом testErr. Повторный вызов возвращает первый итог.
func (m *Manager) Finish(ctx context.Context, h *Handle, testErr error) TestOutcome {
	h.once.Do(func() {
		h.outcome = m.finish(context.WithoutCancel(ctx), h, testErr)
	})
	return h.outcome
}

func (m *Manager) finish(ctx context.Context, h *Handle, testErr error) TestOutcome {
	s := h.Session
	log := m.log.With(zap.String("unit", s.Unit()))

	out := TestOutcome{
		UnitName:  s.Unit(),
		Status:    StatusPassed,
		Err:       testErr,
		StartedAt: h.startedAt,
	}
	if testErr != nil {
		out.Status = StatusFailed
	}

	if out.Status == StatusFailed {
		s.setState(StateCapturing)
		log.Info("Сохранение скриншота", zap.Stringer("state", StateCapturing))

		art, err := m.capture(ctx, s)
		if err != nil {
			out.CaptureErr = err
			log.Error("Не удалось сохранить скриншот", zap.Error(err))
		} else {
			out.Artifact = &art
		}
		log.Error("Test failed",
			zap.Error(testErr),
			zap.String("screenshot", artifactPath(out.Artifact)),
		)
	}

	closed, err := s.teardown()
	if err != nil {
		out.TeardownErr = err
		log.Error("Ошибка закрытия браузера", zap.Error(err))
	}
	if closed {
		log.Info("Browser closed.", zap.Stringer("state", StateTornDown))
	}

	out.Duration = m.cfg.Now().Sub(h.startedAt)
	if out.Status == StatusPassed {
		log.Info("Test passed", zap.Duration("duration", out.Duration))
	}

	m.record(ctx, out)
	return out
}

// capture не дает панике внутри скриншота помешать закрытию браузера.
func (m *Manager) capture(ctx context.Context, s *Session) (art capture.Artifact, err error) {
	if m.capturer == nil {
		return capture.Artifact{}, fmt.Errorf("capturer не настроен")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic при сохранении скриншота: %v", r)
		}
	}()
	return m.capturer.Capture(ctx, s, s.Unit())
}

func (m *Manager) record(ctx context.Context, out TestOutcome) {
	if m.cfg.Sink == nil {
		return
	}
	if err := m.cfg.Sink.Record(ctx, out); err != nil {
		m.log.Warn("Не удалось записать результат в отчет", zap.String("unit", out.UnitName), zap.Error(err))
	}
}

// Run выполняет fn в новой сессии. Возвращаемая ошибка - исходная ошибка теста
// либо InfrastructureError, если сессию создать не удалось.
func (m *Manager) Run(ctx context.Context, unit string, fn func(ctx context.Context, s *Session) error) (TestOutcome, error) {
	h, err := m.Open(ctx, unit)
	if err != nil {
		return TestOutcome{UnitName: unit, Status: StatusErrored, Err: err}, err
	}

	out := m.Finish(ctx, h, runTest(ctx, h.Session, fn))
	return out, out.Err
}

func runTest(ctx context.Context, s *Session, fn func(ctx context.Context, s *Session) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, s)
}

func artifactPath(a *capture.Artifact) string {
	if a == nil {
		return ""
	}
	return a.Path
}
