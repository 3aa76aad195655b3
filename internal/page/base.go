// Package page - базовое поведение page object'ов поверх движка ожиданий.
//
// Click - единственная операция, для которой отсутствие элемента фатально.
// Locate, TypeText, ReadText и IsVisible отсутствие терпят: их используют
// для проверок "элемента нет" и ветвления в тестах.
package page

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"uiRunner/internal/browser"
	"uiRunner/internal/locator"
	"uiRunner/internal/wait"

	"go.uber.org/zap"
)

type Options struct {
	DefaultTimeout time.Duration
	PollInterval   time.Duration
	BaseURL        string
	Clock          wait.Clock
}

// NotInteractableError - фатальный исход Click: элемент не стал видимым и доступным вовремя.
type NotInteractableError struct {
	Locator locator.Locator
	Timeout time.Duration
	Kind    wait.Kind
	Err     error
}

func (e *NotInteractableError) Error() string {
	return fmt.Sprintf("element %s not interactable within %v (%s): %v", e.Locator, e.Timeout, e.Kind, e.Err)
}

func (e *NotInteractableError) Unwrap() error {
	return e.Err
}

// Visibility - ответ IsVisible. Пустое значение означает false.
type Visibility struct {
	Element browser.Element
}

func (v Visibility) Visible() bool {
	return v.Element != nil
}

type Base struct {
	drv  browser.Driver
	opts Options
	log  *zap.Logger
}

func NewBase(drv browser.Driver, log *zap.Logger, opts Options) *Base {
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = 10 * time.Second
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = wait.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Base{
		drv:  drv,
		opts: opts,
		log:  log,
	}
}

func (b *Base) Timeout() time.Duration {
	return b.opts.DefaultTimeout
}

// waitFor ждет элемент в состоянии cond не дольше timeout. Отсутствие элемента
// и отсоединенный после перерисовки узел - штатное "еще нет".
func (b *Base) waitFor(ctx context.Context, cond browser.Condition, loc locator.Locator, timeout time.Duration) wait.Outcome[browser.Element] {
	pred := func(ctx context.Context) (browser.Element, error) {
		if cond != browser.ConditionPresent {
			ok, err := b.drv.Satisfies(ctx, cond, loc)
			if err != nil {
				return nil, notYet(err)
			}
			if !ok {
				return nil, fmt.Errorf("%s не %s: %w", loc, cond, wait.ErrNotYetAvailable)
			}
		}

		el, err := b.drv.Find(ctx, loc)
		if err != nil {
			return nil, notYet(err)
		}
		return el, nil
	}

	return wait.Until(ctx, b.opts.Clock, pred, timeout, b.opts.PollInterval)
}

func notYet(err error) error {
	if errors.Is(err, browser.ErrElementNotFound) || errors.Is(err, browser.ErrStaleElement) {
		return fmt.Errorf("%w: %w", err, wait.ErrNotYetAvailable)
	}
	return err
}

// Locate ждет появления элемента в DOM. Видимость не проверяется.
func (b *Base) Locate(ctx context.Context, loc locator.Locator) (browser.Element, bool) {
	out := b.waitFor(ctx, browser.ConditionPresent, loc, b.opts.DefaultTimeout)
	if el, ok := out.Get(); ok {
		return el, true
	}

	b.log.Warn("Элемент не найден",
		zap.Stringer("locator", loc),
		zap.Stringer("outcome", out.Kind),
		zap.Duration("elapsed", out.Elapsed),
		zap.Error(out.AsError()),
	)
	return nil, false
}

// Click ждет, пока элемент станет видимым и доступным, и кликает ровно один раз.
// Если узел перерисовали между поиском и кликом, клика не было: элемент ищется
// заново в пределах того же таймаута.
func (b *Base) Click(ctx context.Context, loc locator.Locator) error {
	started := b.opts.Clock.Now()
	for {
		remaining := b.opts.DefaultTimeout - b.opts.Clock.Now().Sub(started)
		out := b.waitFor(ctx, browser.ConditionClickable, loc, remaining)
		el, ok := out.Get()
		if !ok {
			err := &NotInteractableError{
				Locator: loc,
				Timeout: b.opts.DefaultTimeout,
				Kind:    out.Kind,
				Err:     out.AsError(),
			}
			b.log.Error("Элемент недоступен для клика", zap.Stringer("locator", loc), zap.Error(err))
			return err
		}

		err := el.Click(ctx)
		if errors.Is(err, browser.ErrStaleElement) {
			b.log.Debug("Элемент перерисован, повторный поиск", zap.Stringer("locator", loc))
			if err := b.opts.Clock.Sleep(ctx, b.opts.PollInterval); err != nil {
				return fmt.Errorf("клик по %s: %w", loc, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("клик по %s: %w", loc, err)
		}
		b.log.Debug("Клик", zap.Stringer("locator", loc))
		return nil
	}
}

// TypeText очищает поле и вводит text как есть. Если поля нет, ничего не делает:
// предыдущий шаг уже упал, и вторая ошибка только запутает отчет.
func (b *Base) TypeText(ctx context.Context, loc locator.Locator, text string) error {
	el, ok := b.Locate(ctx, loc)
	if !ok {
		return nil
	}

	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("очистка %s: %w", loc, err)
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("ввод в %s: %w", loc, err)
	}
	return nil
}

// ReadText возвращает видимый текст элемента или пустую строку.
func (b *Base) ReadText(ctx context.Context, loc locator.Locator) string {
	el, ok := b.Locate(ctx, loc)
	if !ok {
		return ""
	}

	text, err := el.Text(ctx)
	if err != nil {
		b.log.Warn("Не удалось прочитать текст", zap.Stringer("locator", loc), zap.Error(err))
		return ""
	}
	return text
}

// IsVisible ждет видимости элемента. Присутствие в DOM без видимости не считается.
func (b *Base) IsVisible(ctx context.Context, loc locator.Locator) Visibility {
	out := b.waitFor(ctx, browser.ConditionVisible, loc, b.opts.DefaultTimeout)
	el, ok := out.Get()
	if !ok {
		b.log.Debug("Элемент не видим",
			zap.Stringer("locator", loc),
			zap.Stringer("outcome", out.Kind),
			zap.Error(out.AsError()),
		)
		return Visibility{}
	}
	return Visibility{Element: el}
}

// Open переходит по пути относительно BaseURL либо по абсолютному адресу.
func (b *Base) Open(ctx context.Context, path string) error {
	target, err := b.resolve(path)
	if err != nil {
		return err
	}

	b.log.Info("Переход", zap.String("url", target))
	return b.drv.Navigate(ctx, target)
}

func (b *Base) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("адрес %q: %w", path, err)
	}
	if ref.IsAbs() || b.opts.BaseURL == "" {
		return ref.String(), nil
	}

	base, err := url.Parse(b.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base_url %q: %w", b.opts.BaseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}
