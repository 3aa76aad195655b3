// Package migrations применяет схему отчетов к PostgreSQL.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"uiRunner/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

// Source возвращает встроенные миграции.
func Source() (source.Driver, error) {
	return iofs.New(files, "sql")
}

// Run поднимает схему до последней версии. Если задан cfg.Migrations.Path,
// миграции берутся из этого каталога вместо встроенных.
func Run(cfg *config.Cfg, log *zap.Logger) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("Ошибка закрытия миграций", zap.NamedError("source", srcErr), zap.NamedError("db", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Миграции не требуются")
			return nil
		}
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("версия схемы: %w", err)
	}
	log.Info("Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func newMigrate(cfg *config.Cfg) (*migrate.Migrate, error) {
	if cfg.Migrations.Path != "" {
		m, err := migrate.New("file://"+cfg.Migrations.Path, cfg.Database.URL())
		if err != nil {
			return nil, fmt.Errorf("миграции из %s: %w", cfg.Migrations.Path, err)
		}
		return m, nil
	}

	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("встроенные миграции: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.Database.URL())
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}
