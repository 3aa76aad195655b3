package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"uiRunner/internal/browser"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Cfg struct {
	App        App        `yaml:",inline"`
	Browser    Browser    `yaml:",inline"`
	Paths      Paths      `yaml:",inline"`
	Logger     Logger     `yaml:"log"`
	Database   Database   `yaml:"database"`
	Migrations Migrations `yaml:"migrations"`
	Report     Report     `yaml:"report"`
	TestData   TestData   `yaml:"testdata"`
}

type App struct {
	BaseURL        string        `yaml:"base_url"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

type Browser struct {
	Kind      string `yaml:"browser"`
	Headless  bool   `yaml:"headless"`
	Maximized bool   `yaml:"maximized"`
	Channel   string `yaml:"channel"`
	Width     int    `yaml:"window_width"`
	Height    int    `yaml:"window_height"`
	Display   string `yaml:"display"`
}

type Paths struct {
	Screenshots string `yaml:"screenshots_dir"`
	Logs        string `yaml:"logs_dir"`
}

type Logger struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Migrations struct {
	Path string `yaml:"path"`
}

type Report struct {
	Addr string `yaml:"addr"`
}

type TestData struct {
	Path string `yaml:"path"`
}

func defaults() *Cfg {
	return &Cfg{
		App: App{
			BaseURL:        "https://example.com/login",
			DefaultTimeout: 10 * time.Second,
			PollInterval:   500 * time.Millisecond,
		},
		Browser: Browser{
			Kind:      string(browser.KindChrome),
			Maximized: true,
			Width:     1920,
			Height:    1080,
		},
		Paths: Paths{
			Screenshots: "screenshots",
			Logs:        "logs",
		},
		Logger: Logger{
			Env:   "dev",
			Level: "info",
		},
		Database: Database{
			Port: "5432",
		},
		Report: Report{
			Addr: ":8080",
		},
		TestData: TestData{
			Path: "testdata/test_data.xlsx",
		},
	}
}

// Load читает .env, затем YAML файл (UI_CONFIG или config.yaml), затем переменные окружения.
// Конфигурация читается один раз за прогон.
func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path := os.Getenv("UI_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := readFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Cfg) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("разбор %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Cfg) error {
	var err error

	cfg.App.BaseURL = env("UI_BASE_URL", cfg.App.BaseURL)
	if cfg.App.DefaultTimeout, err = envDuration("UI_DEFAULT_TIMEOUT", cfg.App.DefaultTimeout); err != nil {
		return err
	}
	if cfg.App.PollInterval, err = envDuration("UI_POLL_INTERVAL", cfg.App.PollInterval); err != nil {
		return err
	}

	cfg.Browser.Kind = env("UI_BROWSER", cfg.Browser.Kind)
	cfg.Browser.Headless = envBool("PW_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.Maximized = envBool("UI_MAXIMIZED", cfg.Browser.Maximized)
	cfg.Browser.Channel = env("PW_CHANNEL", cfg.Browser.Channel)
	cfg.Browser.Width = envInt("UI_WINDOW_WIDTH", cfg.Browser.Width)
	cfg.Browser.Height = envInt("UI_WINDOW_HEIGHT", cfg.Browser.Height)
	cfg.Browser.Display = env("DISPLAY", cfg.Browser.Display)

	cfg.Paths.Screenshots = env("SCREENSHOTS_DIR", cfg.Paths.Screenshots)
	cfg.Paths.Logs = env("LOGS_DIR", cfg.Paths.Logs)

	cfg.Logger.Env = env("ENV", cfg.Logger.Env)
	cfg.Logger.Level = env("LOG_LEVEL", cfg.Logger.Level)

	cfg.Database.Host = env("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = env("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = env("DB_NAME", cfg.Database.Name)
	cfg.Database.User = env("DB_USER", cfg.Database.User)
	cfg.Database.Password = env("DB_PASS", cfg.Database.Password)

	cfg.Migrations.Path = env("MIGRATIONS_PATH", cfg.Migrations.Path)
	cfg.Report.Addr = env("REPORT_ADDR", cfg.Report.Addr)
	cfg.TestData.Path = env("TESTDATA_PATH", cfg.TestData.Path)
	return nil
}

func (c *Cfg) Validate() error {
	if _, err := browser.ParseKind(c.Browser.Kind); err != nil {
		return err
	}
	if c.App.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout должен быть больше нуля: %v", c.App.DefaultTimeout)
	}
	if c.App.PollInterval <= 0 {
		return fmt.Errorf("poll_interval должен быть больше нуля: %v", c.App.PollInterval)
	}
	if c.App.BaseURL == "" {
		return fmt.Errorf("base_url не задан")
	}
	return nil
}

// BrowserConfig переводит настройки в конфигурацию запуска драйвера.
func (c *Cfg) BrowserConfig() browser.Config {
	kind, _ := browser.ParseKind(c.Browser.Kind)
	return browser.Config{
		Kind:      kind,
		Headless:  c.Browser.Headless,
		Channel:   c.Browser.Channel,
		Maximized: c.Browser.Maximized,
		Width:     c.Browser.Width,
		Height:    c.Browser.Height,
		Display:   c.Browser.Display,
	}
}

func (d Database) Enabled() bool {
	return d.Host != ""
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// URL - адрес в формате, который ожидает golang-migrate.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
