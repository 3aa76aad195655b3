package page

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"uiRunner/internal/browser"
	"uiRunner/internal/browser/browsertest"
	"uiRunner/internal/locator"
	"uiRunner/internal/wait"
	"uiRunner/internal/wait/waittest"
)

var (
	epoch    = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	submit   = locator.ByID("submit")
	username = locator.ByName("username")
	banner   = locator.ByCSS(".banner")
)

type fixture struct {
	clock *waittest.FakeClock
	drv   *browsertest.Driver
	logs  *observer.ObservedLogs
	base  *Base
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := waittest.NewFakeClock(epoch)
	drv := browsertest.NewDriver(clock.Now)
	core, logs := observer.New(zapcore.DebugLevel)

	base := NewBase(drv, zap.New(core), Options{
		DefaultTimeout: 2 * time.Second,
		PollInterval:   500 * time.Millisecond,
		BaseURL:        "https://example.com/app/",
		Clock:          clock,
	})
	return &fixture{clock: clock, drv: drv, logs: logs, base: base}
}

func (f *fixture) elapsed() time.Duration {
	return f.clock.Now().Sub(epoch)
}

func TestClickNeverInteractableIsFatal(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{Hidden: true})

	err := f.base.Click(context.Background(), submit)

	var notInteractable *NotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Equal(t, submit, notInteractable.Locator)
	assert.Equal(t, wait.KindTimedOut, notInteractable.Kind)
	assert.ErrorIs(t, err, wait.ErrTimedOut)
	assert.Contains(t, err.Error(), "not interactable within 2s")
	assert.Contains(t, err.Error(), `(id, "submit")`)
	assert.Empty(t, f.drv.Interactions())
	assert.Equal(t, 1, f.logs.FilterMessage("Элемент недоступен для клика").Len())
}

func TestClickDisabledElementIsFatal(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{Disabled: true})

	err := f.base.Click(context.Background(), submit)

	var notInteractable *NotInteractableError
	assert.ErrorAs(t, err, &notInteractable)
	assert.Empty(t, f.drv.Interactions())
}

func TestClickWaitsThenClicksOnce(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{VisibleFrom: epoch.Add(time.Second)})

	require.NoError(t, f.base.Click(context.Background(), submit))

	assert.Equal(t, []browsertest.Interaction{{Op: "click", Locator: submit}}, f.drv.Interactions())
	assert.Equal(t, time.Second, f.elapsed())
}

func TestClickUnexpectedDriverErrorIsNotTimeout(t *testing.T) {
	f := newFixture(t)
	disconnected := errors.New("target closed")
	f.drv.FindErr = disconnected

	err := f.base.Click(context.Background(), submit)

	var notInteractable *NotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Equal(t, wait.KindError, notInteractable.Kind)
	assert.ErrorIs(t, err, disconnected)
	assert.Zero(t, f.elapsed(), "unexpected errors stop polling immediately")
}

func TestClickSurvivesStaleConditionCheck(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{})
	f.drv.SatisfiesErrs = []error{fmt.Errorf("%w: Element is not attached to the DOM", browser.ErrStaleElement)}

	require.NoError(t, f.base.Click(context.Background(), submit))

	assert.Equal(t, []browsertest.Interaction{{Op: "click", Locator: submit}}, f.drv.Interactions())
	assert.Equal(t, 500*time.Millisecond, f.elapsed())
}

func TestClickRelocatesAfterStaleClick(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{})
	f.drv.ClickErrs = []error{fmt.Errorf("%w: Element is not attached to the DOM", browser.ErrStaleElement)}

	require.NoError(t, f.base.Click(context.Background(), submit))

	assert.Equal(t, []browsertest.Interaction{{Op: "click", Locator: submit}}, f.drv.Interactions())
	assert.Equal(t, 500*time.Millisecond, f.elapsed())
}

func TestClickAlwaysStaleTimesOut(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(submit, &browsertest.Element{})
	stale := fmt.Errorf("%w: Element is not attached to the DOM", browser.ErrStaleElement)
	f.drv.ClickErrs = []error{stale, stale, stale, stale, stale, stale, stale, stale}

	err := f.base.Click(context.Background(), submit)

	var notInteractable *NotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Equal(t, wait.KindTimedOut, notInteractable.Kind)
	assert.Empty(t, f.drv.Interactions())
	assert.Equal(t, 2*time.Second, f.elapsed())
}

func TestLocateAbsentLogsAndReturnsFalse(t *testing.T) {
	f := newFixture(t)

	el, ok := f.base.Locate(context.Background(), submit)

	assert.False(t, ok)
	assert.Nil(t, el)
	entries := f.logs.FilterMessage("Элемент не найден").All()
	require.Len(t, entries, 1)
	assert.Equal(t, `(id, "submit")`, entries[0].ContextMap()["locator"])
	assert.Equal(t, "timed_out", entries[0].ContextMap()["outcome"])
	assert.GreaterOrEqual(t, f.elapsed(), 2*time.Second)
	assert.LessOrEqual(t, f.elapsed(), 2500*time.Millisecond)
}

func TestLocatePresentButHidden(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(banner, &browsertest.Element{Hidden: true})

	_, ok := f.base.Locate(context.Background(), banner)

	assert.True(t, ok)
	assert.Zero(t, f.elapsed())
}

func TestLocateErrorIsTolerated(t *testing.T) {
	f := newFixture(t)
	f.drv.FindErr = errors.New("browser crashed")

	_, ok := f.base.Locate(context.Background(), submit)

	assert.False(t, ok)
	entries := f.logs.FilterMessage("Элемент не найден").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].ContextMap()["outcome"])
}

func TestTypeTextAbsentIsNoop(t *testing.T) {
	f := newFixture(t)

	err := f.base.TypeText(context.Background(), username, "test_user")

	assert.NoError(t, err)
	assert.Empty(t, f.drv.Interactions())
}

func TestTypeTextClearsThenTypesVerbatim(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(username, &browsertest.Element{Value: "old value"})
	text := `  p@ss "word" <b>\n`

	require.NoError(t, f.base.TypeText(context.Background(), username, text))

	assert.Equal(t, []browsertest.Interaction{
		{Op: "clear", Locator: username},
		{Op: "send_keys", Locator: username, Text: text},
	}, f.drv.Interactions())
	assert.Equal(t, text, f.drv.Value(username))
}

func TestTypeTextKeepsControlCharacters(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(username, &browsertest.Element{})

	require.NoError(t, f.base.TypeText(context.Background(), username, "line1\nline2\t"))

	assert.Equal(t, "line1\nline2\t", f.drv.Value(username))
}

func TestReadText(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(banner, &browsertest.Element{Text: "Invalid credentials"})

	assert.Equal(t, "Invalid credentials", f.base.ReadText(context.Background(), banner))
	assert.Equal(t, "", f.base.ReadText(context.Background(), submit))
}

func TestIsVisible(t *testing.T) {
	f := newFixture(t)
	f.drv.Put(banner, &browsertest.Element{VisibleFrom: epoch.Add(1500 * time.Millisecond)})
	f.drv.Put(submit, &browsertest.Element{Hidden: true})

	got := f.base.IsVisible(context.Background(), banner)
	assert.True(t, got.Visible())
	assert.NotNil(t, got.Element)

	hidden := f.base.IsVisible(context.Background(), submit)
	assert.False(t, hidden.Visible())
	assert.Nil(t, hidden.Element)

	missing := f.base.IsVisible(context.Background(), username)
	assert.False(t, missing.Visible())
}

func TestOpen(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.base.Open(context.Background(), "login?next=%2F"))
	require.NoError(t, f.base.Open(context.Background(), "https://other.test/x"))
	require.NoError(t, f.base.Open(context.Background(), ""))

	assert.Equal(t, []string{
		"https://example.com/app/login?next=%2F",
		"https://other.test/x",
		"https://example.com/app/",
	}, f.drv.Navigated())
}

func TestNewBaseDefaults(t *testing.T) {
	b := NewBase(browsertest.NewDriver(nil), nil, Options{})
	assert.Equal(t, 10*time.Second, b.Timeout())
	assert.Equal(t, 500*time.Millisecond, b.opts.PollInterval)
}

func TestLoginPage(t *testing.T) {
	f := newFixture(t)
	loc := DefaultLoginLocators()
	f.drv.Put(loc.Username, &browsertest.Element{})
	f.drv.Put(loc.Password, &browsertest.Element{})
	f.drv.Put(loc.LoginButton, &browsertest.Element{})
	f.drv.Put(loc.ErrorMessage, &browsertest.Element{Text: "Wrong password"})

	p := NewLoginPage(f.base, loc)
	require.NoError(t, p.EnterUsername(context.Background(), "test_user"))
	require.NoError(t, p.EnterPassword(context.Background(), "password123"))
	require.NoError(t, p.ClickLogin(context.Background()))

	assert.Equal(t, "test_user", f.drv.Value(loc.Username))
	assert.Equal(t, "password123", f.drv.Value(loc.Password))
	assert.Equal(t, "Wrong password", p.ErrorMessage(context.Background()))
	assert.Equal(t, loc, p.Locators())
}
