// Package locator описывает неизменяемые пары (стратегия, значение), по которым
// page object'ы находят элементы на текущей странице.
package locator

import (
	"fmt"
	"regexp"
	"strings"
)

type Strategy int

const (
	StrategyCSS Strategy = iota
	StrategyID
	StrategyName
	StrategyXPath
	StrategyText
	StrategyTestID
	StrategyLinkText
)

func (s Strategy) String() string {
	switch s {
	case StrategyCSS:
		return "css"
	case StrategyID:
		return "id"
	case StrategyName:
		return "name"
	case StrategyXPath:
		return "xpath"
	case StrategyText:
		return "text"
	case StrategyTestID:
		return "data-testid"
	case StrategyLinkText:
		return "link text"
	default:
		return "unknown"
	}
}

// Locator сравнивается по значению, поэтому его можно использовать как ключ map.
type Locator struct {
	Strategy Strategy
	Value    string
}

func ByCSS(v string) Locator      { return Locator{Strategy: StrategyCSS, Value: v} }
func ByID(v string) Locator       { return Locator{Strategy: StrategyID, Value: v} }
func ByName(v string) Locator     { return Locator{Strategy: StrategyName, Value: v} }
func ByXPath(v string) Locator    { return Locator{Strategy: StrategyXPath, Value: v} }
func ByText(v string) Locator     { return Locator{Strategy: StrategyText, Value: v} }
func ByTestID(v string) Locator   { return Locator{Strategy: StrategyTestID, Value: v} }
func ByLinkText(v string) Locator { return Locator{Strategy: StrategyLinkText, Value: v} }

func (l Locator) String() string {
	return fmt.Sprintf("(%s, %q)", l.Strategy, l.Value)
}

// Selector переводит локатор в селектор Playwright.
func (l Locator) Selector() (string, error) {
	if strings.TrimSpace(l.Value) == "" {
		return "", fmt.Errorf("локатор %s: пустое значение", l)
	}

	switch l.Strategy {
	case StrategyCSS:
		if err := ValidateSelector(l.Value); err != nil {
			return "", err
		}
		normalized, _ := NormalizeSelector(l.Value)
		return "css=" + normalized, nil
	case StrategyID:
		return "id=" + l.Value, nil
	case StrategyName:
		return fmt.Sprintf("css=[name=%s]", quote(l.Value)), nil
	case StrategyXPath:
		return "xpath=" + l.Value, nil
	case StrategyText:
		return "text=" + quote(l.Value), nil
	case StrategyTestID:
		return "data-testid=" + l.Value, nil
	case StrategyLinkText:
		return fmt.Sprintf("css=a:text-is(%s)", quote(l.Value)), nil
	default:
		return "", fmt.Errorf("неизвестная стратегия локатора: %d", int(l.Strategy))
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

var (
	containsDouble   = regexp.MustCompile(`:contains\("([^"]*)"\)`)
	containsSingle   = regexp.MustCompile(`:contains\('([^']*)'\)`)
	containsNoQuotes = regexp.MustCompile(`:contains\(([^)"']+)\)`)
)

// NormalizeSelector преобразует jQuery :contains() в Playwright :has-text().
// Возвращает нормализованный селектор и флаг, был ли он изменен.
func NormalizeSelector(selector string) (string, bool) {
	if selector == "" {
		return selector, false
	}

	changed := false
	normalized := containsDouble.ReplaceAllStringFunc(selector, func(match string) string {
		changed = true
		text := containsDouble.FindStringSubmatch(match)[1]
		return `:has-text(` + quote(text) + `)`
	})
	normalized = containsSingle.ReplaceAllStringFunc(normalized, func(match string) string {
		changed = true
		text := containsSingle.FindStringSubmatch(match)[1]
		return `:has-text(` + quote(text) + `)`
	})
	normalized = containsNoQuotes.ReplaceAllStringFunc(normalized, func(match string) string {
		changed = true
		text := strings.TrimSpace(containsNoQuotes.FindStringSubmatch(match)[1])
		return `:has-text(` + quote(text) + `)`
	})

	return normalized, changed
}

// ValidateSelector отсекает значения, которые точно не являются CSS селектором.
func ValidateSelector(selector string) error {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return fmt.Errorf("селектор не может быть пустым")
	}
	if strings.Contains(trimmed, "://") {
		return fmt.Errorf("селектор не может быть URL, для перехода используйте Open: %s", selector)
	}
	return nil
}
