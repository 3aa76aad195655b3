package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"uiRunner/internal/config"
	"uiRunner/internal/database"
	"uiRunner/internal/logger"
	"uiRunner/internal/migrations"
	"uiRunner/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level, logger.WithFileDir(cfg.Paths.Logs), logger.WithName("report"))
	if err != nil {
		panic(err)
	}
	defer log.Close()

	if !cfg.Database.Enabled() {
		log.Fatal("Для сервера отчетов нужна БД: задайте DB_HOST")
	}

	if err := migrations.Run(cfg, log.Logger); err != nil {
		log.Fatal("Ошибка миграций", zap.Error(err))
	}

	db, err := database.New(cfg, log.Logger)
	if err != nil {
		log.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer db.Close(log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Report.Addr, cfg.Paths.Screenshots, log.Logger, database.NewResultRepository(db.DB))
	if err := srv.Run(ctx); err != nil {
		log.Error("Сервер остановлен с ошибкой", zap.Error(err))
	}
}
