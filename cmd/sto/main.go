package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	verbose    bool

	logger *zap.Logger
)

func main() {
	if err := Main(); err != nil {
		log.Fatal(err)
	}
}

// Main небольшая функция обертка для точки входа main, чтобы было удобнее обрабатывать ошибки
func Main() error {
	// по Ctrl+C или SIGTERM отменяем контекст, и все зависимые от него компоненты завершаются
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sto",
		Short:         "Сервер заказов СТО: формы, save_bd, админка таблиц",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config-file", "", "YAML файл с настройками")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "подробный лог")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "HTTP сервер, подписчик Nats и наблюдение за конфигами",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Создать недостающие таблицы и колонки",
			RunE:  runMigrate,
		},
		newCollectCmd(),
	)
	return root
}

// openDB подключение к Postgres; миграции выполняет репозиторий при создании
func openDB(o opt) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", o.ConnectionString())
	if err != nil {
		return nil, err
	}

	// тут можно настроить параметры подключения к базе
	db.SetMaxOpenConns(12)
	db.SetMaxIdleConns(10)
	return db, nil
}
