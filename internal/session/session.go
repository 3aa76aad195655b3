package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"uiRunner/internal/browser"
	"uiRunner/internal/locator"
	"uiRunner/internal/page"
)

var ErrSessionClosed = errors.New("сессия браузера уже закрыта")

type State int

const (
	StateCreated State = iota
	StateRunning
	StateCapturing
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCapturing:
		return "capturing"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Session - одна живая сессия браузера, принадлежащая одному тесту.
// Операции выполняются строго по очереди; после закрытия любая операция
// возвращает ErrSessionClosed, в том числе операции над ранее найденными элементами.
type Session struct {
	unit string
	drv  browser.Driver
	page *page.Base

	mu    sync.Mutex
	state State
}

func newSession(unit string, drv browser.Driver) *Session {
	return &Session{unit: unit, drv: drv, state: StateCreated}
}

func (s *Session) Unit() string {
	return s.unit
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Page - базовый page object этой сессии с таймаутами из конфигурации.
func (s *Session) Page() *page.Base {
	return s.page
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// do выполняет операцию под замком сессии, что и упорядочивает все обращения к драйверу.
func (s *Session) do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown {
		return fmt.Errorf("%s: %w", s.unit, ErrSessionClosed)
	}
	return fn()
}

// teardown закрывает драйвер ровно один раз.
func (s *Session) teardown() (closed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown {
		return false, nil
	}
	s.state = StateTornDown
	return true, s.drv.Close()
}

func (s *Session) Find(ctx context.Context, loc locator.Locator) (browser.Element, error) {
	var el browser.Element
	err := s.do(func() error {
		var err error
		el, err = s.drv.Find(ctx, loc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sessionElement{session: s, el: el}, nil
}

func (s *Session) Satisfies(ctx context.Context, cond browser.Condition, loc locator.Locator) (bool, error) {
	var ok bool
	err := s.do(func() error {
		var err error
		ok, err = s.drv.Satisfies(ctx, cond, loc)
		return err
	})
	return ok, err
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.do(func() error {
		var err error
		data, err = s.drv.Screenshot(ctx)
		return err
	})
	return data, err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.do(func() error {
		return s.drv.Navigate(ctx, url)
	})
}

// Close у сессии не закрывает браузер: им владеет Manager.
func (s *Session) Close() error {
	return fmt.Errorf("сессию %s закрывает Manager", s.unit)
}

type sessionElement struct {
	session *Session
	el      browser.Element
}

func (e *sessionElement) Click(ctx context.Context) error {
	return e.session.do(func() error { return e.el.Click(ctx) })
}

func (e *sessionElement) Clear(ctx context.Context) error {
	return e.session.do(func() error { return e.el.Clear(ctx) })
}

func (e *sessionElement) SendKeys(ctx context.Context, text string) error {
	return e.session.do(func() error { return e.el.SendKeys(ctx, text) })
}

func (e *sessionElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.session.do(func() error {
		var err error
		text, err = e.el.Text(ctx)
		return err
	})
	return text, err
}
