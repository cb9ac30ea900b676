package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"orders/internal/app"
	"orders/internal/version"
)

func main() {
	setupLogger()

	logger := log.WithField("service", "orders-api")
	logger.WithField("version", version.String()).Info("запуск сервиса заказов")

	cfg := app.ReadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("сервис завершился с ошибкой")
	}

	logger.Info("сервис остановлен")
}

func setupLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
