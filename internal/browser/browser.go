package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uiRunner/internal/locator"

	"github.com/playwright-community/playwright-go"
)

type PlaywrightLauncher struct{}

func (PlaywrightLauncher) Launch(ctx context.Context, cfg Config) (Driver, error) {
	d, err := Launch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Kind == "" {
		cfg.Kind = KindChrome
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second
	}
	if cfg.Width == 0 {
		cfg.Width = 1920
	}
	if cfg.Height == 0 {
		cfg.Height = 1080
	}
	if cfg.Kind == KindEdge && cfg.Channel == "" {
		cfg.Channel = "msedge"
	}
	return cfg
}

// Launch запускает браузер нужного типа и открывает в нем одну страницу.
// При ошибке все уже поднятые ресурсы освобождаются.
func Launch(ctx context.Context, cfg Config) (*PlaywrightDriver, error) {
	cfg = withDefaults(cfg)
	if _, err := ParseKind(string(cfg.Kind)); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("запуск playwright: %w", err)
	}

	d := &PlaywrightDriver{pw: pw, cfg: cfg}
	if err := d.launch(); err != nil {
		return nil, errors.Join(err, d.Close())
	}
	return d, nil
}

func (d *PlaywrightDriver) browserType() playwright.BrowserType {
	if d.cfg.Kind == KindFirefox {
		return d.pw.Firefox
	}
	return d.pw.Chromium
}

func (d *PlaywrightDriver) launchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
	}
	if d.cfg.Channel != "" {
		opts.Channel = playwright.String(d.cfg.Channel)
	}
	if d.cfg.Kind != KindFirefox {
		opts.Args = []string{"--no-sandbox"}
		if d.cfg.Maximized {
			opts.Args = append(opts.Args, "--start-maximized")
		}
	}
	if d.cfg.Display != "" {
		opts.Env = map[string]string{"DISPLAY": d.cfg.Display}
	}
	return opts
}

func (d *PlaywrightDriver) contextOptions() playwright.BrowserNewContextOptions {
	// Chromium с --start-maximized берет размер окна только без фиксированного viewport.
	if d.cfg.Maximized && d.cfg.Kind != KindFirefox && !d.cfg.Headless {
		return playwright.BrowserNewContextOptions{NoViewport: playwright.Bool(true)}
	}
	return playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: d.cfg.Width, Height: d.cfg.Height},
	}
}

func (d *PlaywrightDriver) launch() error {
	br, err := d.browserType().Launch(d.launchOptions())
	if err != nil {
		return fmt.Errorf("запуск %s: %w", d.cfg.Kind, err)
	}
	d.mu.Lock()
	d.browser = br
	d.mu.Unlock()

	browserContext, err := br.NewContext(d.contextOptions())
	if err != nil {
		return fmt.Errorf("создание контекста: %w", err)
	}
	d.mu.Lock()
	d.context = browserContext
	d.mu.Unlock()

	page, err := browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("создание страницы: %w", err)
	}
	page.SetDefaultTimeout(float64(d.cfg.Timeout.Milliseconds()))

	d.mu.Lock()
	d.page = page
	d.mu.Unlock()
	return nil
}

// getPage безопасно возвращает текущую страницу с read lock
func (d *PlaywrightDriver) getPage() (playwright.Page, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.page == nil {
		return nil, ErrNotLaunched
	}
	return d.page, nil
}

func (d *PlaywrightDriver) query(loc locator.Locator) (playwright.ElementHandle, error) {
	page, err := d.getPage()
	if err != nil {
		return nil, err
	}
	selector, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	handle, err := page.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("поиск %s: %w", loc, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return handle, nil
}

func (d *PlaywrightDriver) Find(ctx context.Context, loc locator.Locator) (Element, error) {
	handle, err := d.query(loc)
	if err != nil {
		return nil, err
	}
	return &playwrightElement{handle: handle}, nil
}

func (d *PlaywrightDriver) Satisfies(ctx context.Context, cond Condition, loc locator.Locator) (bool, error) {
	handle, err := d.query(loc)
	if errors.Is(err, ErrElementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ok, err := handleSatisfies(handle, cond)
	if isDetached(err) {
		return false, nil
	}
	return ok, err
}

func handleSatisfies(handle playwright.ElementHandle, cond Condition) (bool, error) {
	switch cond {
	case ConditionPresent:
		return true, nil
	case ConditionVisible:
		return handle.IsVisible()
	case ConditionClickable:
		visible, err := handle.IsVisible()
		if err != nil || !visible {
			return false, err
		}
		return handle.IsEnabled()
	default:
		return false, fmt.Errorf("неизвестное условие: %d", int(cond))
	}
}

// Сообщения playwright о handle, чей узел уже удален из документа.
var detachedMarkers = []string{
	"not attached to the DOM",
	"Element is detached",
	"element handle is disposed",
	"JSHandle is disposed",
}

func isDetached(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range detachedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// staleErr помечает ошибку отсоединенного handle как ErrStaleElement.
func staleErr(err error) error {
	if isDetached(err) {
		return fmt.Errorf("%w: %w", ErrStaleElement, err)
	}
	return err
}

func (d *PlaywrightDriver) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := d.getPage()
	if err != nil {
		return nil, err
	}
	return page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	page, err := d.getPage()
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(float64(d.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("navigate timeout after %v: %s", d.cfg.NavigateTimeout, url)
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("переход на %s: %w", url, err)
		}
	}
	return nil
}

// Close закрывает контекст, браузер и драйвер playwright. Повторный вызов ничего не делает.
func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.context != nil {
		errs = append(errs, d.context.Close())
		d.context = nil
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
		d.browser = nil
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
		d.pw = nil
	}
	d.page = nil
	return errors.Join(errs...)
}

func (e *playwrightElement) Click(ctx context.Context) error {
	return staleErr(e.handle.Click())
}

func (e *playwrightElement) Clear(ctx context.Context) error {
	return staleErr(e.handle.Fill(""))
}

// SendKeys вставляет текст как есть, без эмуляции нажатий: "\n" не станет Enter.
func (e *playwrightElement) SendKeys(ctx context.Context, text string) error {
	return staleErr(e.handle.Fill(text))
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	text, err := e.handle.InnerText()
	return text, staleErr(err)
}
