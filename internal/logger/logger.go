// Package logger собирает zap логгер прогона: консоль плюс файл execution_<время>.log.
// Строки имеют вид "<время> | <уровень> | <имя логгера> | <сообщение>".
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	TimeLayout     = "2006-01-02 15:04:05"
	fileTimeLayout = "2006-01-02_15-04-05"
	defaultName    = "framework"
)

type Zap struct {
	*zap.Logger
	FilePath string
	files    []*os.File
}

type options struct {
	fileDir string
	console io.Writer
	name    string
	now     func() time.Time
}

type Option func(*options)

// WithFileDir включает запись в файл внутри dir; каталог создается при необходимости.
func WithFileDir(dir string) Option {
	return func(o *options) { o.fileDir = dir }
}

func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func withNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " | ",
	}
}

// New создает логгер. env=prod переключает консоль на JSON, файл всегда пишется построчно.
func New(env, level string, opts ...Option) (*Zap, error) {
	o := options{console: os.Stderr, name: defaultName, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("уровень логирования %q: %w", level, err)
	}

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig())
	if env == "prod" {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig())
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(o.console)), lvl),
	}

	z := &Zap{}
	if o.fileDir != "" {
		if err := os.MkdirAll(o.fileDir, 0o755); err != nil {
			return nil, fmt.Errorf("каталог логов: %w", err)
		}
		z.FilePath = filepath.Join(o.fileDir, "execution_"+o.now().Format(fileTimeLayout)+".log")
		f, err := os.OpenFile(z.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("файл логов: %w", err)
		}
		z.files = append(z.files, f)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(f), lvl))
	}

	z.Logger = zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.DPanicLevel)).Named(o.name)
	return z, nil
}

// Nop нужен там, где логгер обязателен, но вывод не интересен.
func Nop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}

// Close сбрасывает буферы и закрывает файл прогона.
func (z *Zap) Close() error {
	// Sync на stderr в некоторых ОС возвращает EINVAL, это не ошибка прогона.
	_ = z.Logger.Sync()

	var errs []error
	for _, f := range z.files {
		errs = append(errs, f.Close())
	}
	z.files = nil
	return errors.Join(errs...)
}
