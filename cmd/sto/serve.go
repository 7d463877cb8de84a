package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sto/domain"
	"sto/internal/configs"
	"sto/internal/repositories"
	"sto/internal/savebd"
	"sto/internal/server"
	"sto/internal/storage"
	natsLocal "sto/pkg/nats"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Minute
)

// Saver чтобы не завязываться на конкретной реализации
// объявляем интерфейс сохранения тут
type Saver interface {
	Save(ctx context.Context, req domain.SaveRequest) (domain.SaveResult, error)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	o, err := loadOpt(configFile)
	if err != nil {
		return err
	}

	db, err := openDB(o)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	ledger, err := repositories.NewLedgerRepository(ctx, db)
	if err != nil {
		return err
	}

	loader := configs.NewLoader(o.SiteRoot, configs.WithTTL(o.ConfigTTL))
	watcher, err := configs.NewWatcher(loader, logger)
	if err != nil {
		return err
	}
	// Run закрывает watcher сам, но до errgroup можно не дойти
	defer func() {
		_ = watcher.Close()
	}()

	saver := savebd.NewService(loader, ledger, savebd.NewInterpreter(), logger)

	// без NATS_URL клиент создаётся без соединения: /publish отвечает ошибкой,
	// остальные ручки работают
	natsClient, err := natsLocal.New(o.NatsURL)
	if err != nil {
		return err
	}
	defer func() {
		// тут мы очищаем подписчиков и обрываем соединение с Nats
		_ = natsClient.Close()
	}()

	if natsClient.Connected() {
		err = natsClient.Subscribe(domain.SaveSubject, func(msg *nats.Msg) {
			if err := handleEvent(ctx, saver, msg.Data); err != nil {
				logger.Error("failed to handle save event", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe Nats: %w", err)
		}
	}

	ln, err := net.Listen(fiber.NetworkTCP4, o.HTTPAddress)
	if err != nil {
		return fmt.Errorf("failed to get http listener: %w", err)
	}

	app := fiber.New(fiber.Config{
		Views:        html.New(o.Templates, ".html"),
		ServerHeader: "STO Server",
		ErrorHandler: server.ErrorHandler(logger),
	})

	server.NewHandler(server.Deps{
		Saver:      saver,
		Files:      storage.NewFiles(o.SiteRoot),
		Configs:    loader,
		Tables:     repositories.NewTableRepository(db),
		Ledger:     ledger,
		Directory:  repositories.NewDirectoryRepository(db),
		Publisher:  natsClient,
		SitePrefix: o.SitePrefix,
	}, logger).MountRoutes(app)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		loader.RunJanitor(gctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server started", zap.String("address", ln.Addr().String()))
		return app.Listener(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	o, err := loadOpt(configFile)
	if err != nil {
		return err
	}

	db, err := openDB(o)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err = repositories.NewLedgerRepository(cmd.Context(), db); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.String("database", o.Name))
	return nil
}

// handleEvent сохраняет запрос, пришедший через Nats
func handleEvent(ctx context.Context, saver Saver, data []byte) error {
	request := domain.SaveRequest{}
	if err := json.Unmarshal(data, &request); err != nil {
		return fmt.Errorf("failed to unmarshal input json: %w", err)
	}

	result, err := saver.Save(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to save data to database: %w", err)
	}

	logger.Debug("save event handled", zap.String("config", request.Config), zap.String("order_id", result.OrderID))
	return nil
}
