package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"uiRunner/internal/locator"

	"github.com/playwright-community/playwright-go"
)

var (
	ErrElementNotFound    = errors.New("элемент не найден")
	ErrUnsupportedBrowser = errors.New("неподдерживаемый браузер")
	ErrNotLaunched        = errors.New("браузер не запущен")

	// ErrStaleElement - элемент пропал из DOM между поиском и действием
	// (перерисовка страницы). Это "еще нет", а не отказ сессии.
	ErrStaleElement = errors.New("элемент отсоединен от DOM")
)

type Kind string

const (
	KindChrome  Kind = "chrome"
	KindFirefox Kind = "firefox"
	KindEdge    Kind = "edge"
)

// ParseKind разбирает имя браузера из конфигурации без учета регистра.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindChrome, KindFirefox, KindEdge:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBrowser, s)
	}
}

// Condition - состояние элемента, которое можно проверить без ожидания.
type Condition int

const (
	// ConditionPresent - элемент есть в DOM, видимость не важна.
	ConditionPresent Condition = iota
	ConditionVisible
	// ConditionClickable - элемент видим и не disabled.
	ConditionClickable
)

func (c Condition) String() string {
	switch c {
	case ConditionPresent:
		return "present"
	case ConditionVisible:
		return "visible"
	case ConditionClickable:
		return "clickable"
	default:
		return "unknown"
	}
}

// Element - найденный элемент страницы. Любой вызов может быть медленным и может упасть.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// Driver - возможности живой сессии браузера, на которых построены ожидания и page object'ы.
type Driver interface {
	// Find возвращает ErrElementNotFound, если элемента сейчас нет на странице.
	Find(ctx context.Context, loc locator.Locator) (Element, error)
	Satisfies(ctx context.Context, cond Condition, loc locator.Locator) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Navigate(ctx context.Context, url string) error
	Close() error
}

// Launcher создает новую сессию браузера по конфигурации.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Driver, error)
}

type Config struct {
	Kind      Kind
	Headless  bool
	Channel   string
	Maximized bool
	Width     int
	Height    int
	Display   string
	// Timeout - таймаут одного действия Playwright, не путать с таймаутом ожидания page object'ов.
	Timeout         time.Duration
	NavigateTimeout time.Duration
}

type PlaywrightDriver struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	cfg     Config
}

type playwrightElement struct {
	handle playwright.ElementHandle
}
