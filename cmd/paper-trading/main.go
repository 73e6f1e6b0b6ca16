package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/meowstock/paper-trading/internal/account"
	"github.com/meowstock/paper-trading/internal/api"
	"github.com/meowstock/paper-trading/internal/config"
	"github.com/meowstock/paper-trading/internal/ledger"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/monitor"
	"github.com/meowstock/paper-trading/internal/notify"
	"github.com/meowstock/paper-trading/internal/orderbook"
	"github.com/meowstock/paper-trading/internal/quotes"
	"github.com/meowstock/paper-trading/internal/server"
	"github.com/meowstock/paper-trading/internal/store"
)

const _cfgFilePath = "./configs/config.yaml"

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(_cfgFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zapLogger.Fatalf("%s: can't load config", err)
		}
		zapLogger.Warnf("no config file at %s, using defaults", _cfgFilePath)
		cfg = config.Default()
	}

	storeCfg := store.NewConfigFromEnv().Setup()
	snapshotStore, err := store.NewStore(storeCfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't open snapshot store", err)
	}
	defer func() {
		if err := snapshotStore.Close(); err != nil {
			zapLogger.Errorf("%s: can't close snapshot store", err)
		}
	}()

	led := ledger.New(cfg.Account.InitialBalance, zapLogger)
	book := orderbook.New(led, zapLogger)
	accountService := account.NewService(
		led, book, snapshotStore,
		cfg.Account.Name, cfg.Account.FlushInterval, zapLogger,
	)

	// Restore before the monitor starts polling.
	if err := accountService.Restore(ctx); err != nil {
		zapLogger.Fatalf("%s: can't restore account", err)
	}

	quoteService := quotes.NewService(cfg.Quotes, zapLogger)
	notifier := notify.NewLogNotifier(zapLogger)
	orderMonitor := monitor.New(
		quoteService, accountService, notifier,
		cfg.Monitor.Interval, cfg.Quotes.Timeout, zapLogger,
	)

	go accountService.Run(ctx)
	go orderMonitor.Run(ctx)

	handler := api.NewHandler(accountService, quoteService, cfg.Account.LotSize, zapLogger)
	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, api.NewRouter(handler))

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	if err := httpServer.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Errorf("%s: server stopped", err)
	}
}
