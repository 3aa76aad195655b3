// Package capture сохраняет диагностические артефакты живой сессии браузера.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"uiRunner/internal/browser"
)

const (
	TimestampLayout = "20060102_150405"
	maxCollisions   = 1000
)

type Artifact struct {
	Path      string
	CreatedAt time.Time
}

type Capturer interface {
	Capture(ctx context.Context, drv browser.Driver, unit string) (Artifact, error)
}

// Screenshotter пишет PNG в Dir под именем <unit>_<YYYYMMDD_HHMMSS>.png.
// Каталог общий для параллельных тестов, поэтому файл создается с O_EXCL,
// а при совпадении имени добавляется суффикс _1, _2, ...
type Screenshotter struct {
	Dir string
	Now func() time.Time
}

func NewScreenshotter(dir string) *Screenshotter {
	return &Screenshotter{Dir: dir, Now: time.Now}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName делает из имени теста безопасное имя файла.
func SanitizeName(unit string) string {
	name := unsafeChars.ReplaceAllString(unit, "_")
	if name == "" || name == "." || name == ".." {
		return "unit"
	}
	return name
}

func (s *Screenshotter) Capture(ctx context.Context, drv browser.Driver, unit string) (Artifact, error) {
	data, err := drv.Screenshot(ctx)
	if err != nil {
		return Artifact{}, fmt.Errorf("скриншот: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("каталог скриншотов: %w", err)
	}

	nowFn := s.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()
	base := SanitizeName(unit) + "_" + now.Format(TimestampLayout)
	f, path, err := s.create(base)
	if err != nil {
		return Artifact{}, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("запись %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Artifact{}, fmt.Errorf("запись %s: %w", path, err)
	}

	return Artifact{Path: path, CreatedAt: now}, nil
}

func (s *Screenshotter) create(base string) (*os.File, string, error) {
	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name += "_" + strconv.Itoa(i)
		}
		path := filepath.Join(s.Dir, name+".png")

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("создание %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("не удалось подобрать свободное имя для %s", base)
}
