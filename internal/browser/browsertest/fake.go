// Package browsertest содержит управляемую подмену browser.Driver для тестов без браузера.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"uiRunner/internal/browser"
	"uiRunner/internal/locator"
)

var ErrDriverClosed = errors.New("fake driver closed")

type Interaction struct {
	Op      string
	Locator locator.Locator
	Text    string
}

// Element описывает элемент страницы. Поля *From задают момент появления
// по часам драйвера; нулевое значение - элемент в этом состоянии сразу.
type Element struct {
	Text        string
	Value       string
	Hidden      bool
	Disabled    bool
	PresentFrom time.Time
	VisibleFrom time.Time
}

type Driver struct {
	mu       sync.Mutex
	now      func() time.Time
	elements map[locator.Locator]*Element

	interactions  []Interaction
	navigated     []string
	closeCalls    int
	useAfterClose int

	// FindErr, если задан, возвращается из Find и Satisfies вместо результата поиска.
	FindErr        error
	ScreenshotErr  error
	ScreenshotData []byte
	CloseErr       error

	// SatisfiesErrs и ClickErrs выдаются по одной на вызов, пока не кончатся.
	SatisfiesErrs []error
	ClickErrs     []error
}

// NewDriver создает пустую страницу. now может быть nil, тогда время не учитывается.
func NewDriver(now func() time.Time) *Driver {
	return &Driver{
		now:            now,
		elements:       make(map[locator.Locator]*Element),
		ScreenshotData: []byte("\x89PNG fake"),
	}
}

func (d *Driver) Put(loc locator.Locator, el *Element) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = el
	return d
}

func (d *Driver) reached(t time.Time) bool {
	if t.IsZero() || d.now == nil {
		return true
	}
	return !d.now().Before(t)
}

func (d *Driver) lookup(loc locator.Locator) (*Element, error) {
	if d.closeCalls > 0 {
		d.useAfterClose++
		return nil, ErrDriverClosed
	}
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	el, ok := d.elements[loc]
	if !ok || !d.reached(el.PresentFrom) {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, loc)
	}
	return el, nil
}

func (d *Driver) Find(ctx context.Context, loc locator.Locator) (browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lookup(loc); err != nil {
		return nil, err
	}
	return &element{driver: d, loc: loc}, nil
}

func (d *Driver) Satisfies(ctx context.Context, cond browser.Condition, loc locator.Locator) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.SatisfiesErrs) > 0 {
		err := d.SatisfiesErrs[0]
		d.SatisfiesErrs = d.SatisfiesErrs[1:]
		return false, err
	}
	el, err := d.lookup(loc)
	if errors.Is(err, browser.ErrElementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	visible := !el.Hidden && d.reached(el.VisibleFrom)
	switch cond {
	case browser.ConditionPresent:
		return true, nil
	case browser.ConditionVisible:
		return visible, nil
	case browser.ConditionClickable:
		return visible && !el.Disabled, nil
	default:
		return false, fmt.Errorf("unknown condition %d", int(cond))
	}
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeCalls > 0 {
		d.useAfterClose++
		return nil, ErrDriverClosed
	}
	d.interactions = append(d.interactions, Interaction{Op: "screenshot"})
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	return d.ScreenshotData, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeCalls > 0 {
		d.useAfterClose++
		return ErrDriverClosed
	}
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return d.CloseErr
}

func (d *Driver) Interactions() []Interaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Interaction, len(d.interactions))
	copy(out, d.interactions)
	return out
}

func (d *Driver) Navigated() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigated...)
}

func (d *Driver) CloseCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCalls
}

// UseAfterClose считает обращения к драйверу после Close.
func (d *Driver) UseAfterClose() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.useAfterClose
}

// Value возвращает текст, введенный в элемент.
func (d *Driver) Value(loc locator.Locator) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elements[loc]; ok {
		return el.Value
	}
	return ""
}

type element struct {
	driver *Driver
	loc    locator.Locator
}

func (e *element) do(op, text string, fn func(el *Element)) error {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	el, err := e.driver.lookup(e.loc)
	if err != nil {
		return err
	}
	e.driver.interactions = append(e.driver.interactions, Interaction{Op: op, Locator: e.loc, Text: text})
	if fn != nil {
		fn(el)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error {
	e.driver.mu.Lock()
	if len(e.driver.ClickErrs) > 0 {
		err := e.driver.ClickErrs[0]
		e.driver.ClickErrs = e.driver.ClickErrs[1:]
		e.driver.mu.Unlock()
		return err
	}
	e.driver.mu.Unlock()
	return e.do("click", "", nil)
}

func (e *element) Clear(ctx context.Context) error {
	return e.do("clear", "", func(el *Element) { el.Value = "" })
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.do("send_keys", text, func(el *Element) { el.Value += text })
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	el, err := e.driver.lookup(e.loc)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

// Launcher выдает заранее подготовленные драйверы по порядку.
type Launcher struct {
	mu      sync.Mutex
	Drivers []*Driver
	Err     error
	Configs []browser.Config
}

func (l *Launcher) Launch(ctx context.Context, cfg browser.Config) (browser.Driver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Configs = append(l.Configs, cfg)
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.Drivers) == 0 {
		return NewDriver(nil), nil
	}
	d := l.Drivers[0]
	l.Drivers = l.Drivers[1:]
	return d, nil
}
