package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ebbinghausbot/internal/bot"
	"github.com/example/ebbinghausbot/internal/config"
	"github.com/example/ebbinghausbot/internal/database"
	"github.com/example/ebbinghausbot/internal/excel"
	"github.com/example/ebbinghausbot/internal/health"
	"github.com/example/ebbinghausbot/internal/logger"
	"github.com/example/ebbinghausbot/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	exportPath := flag.String("export", "", "write every user's schedule to this .xlsx file and exit")
	importPath := flag.String("import", "", "add topics from an exported .xlsx or .csv schedule and exit")
	flag.Parse()

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:      config.LogLevel(),
		FilePath:   config.LogFile(),
		Production: config.IsProduction(),
	})
	defer func() { _ = log.Sync() }()

	var err error
	switch {
	case *exportPath != "":
		err = export(*exportPath, log)
	case *importPath != "":
		err = importSchedule(*importPath, log)
	default:
		err = run(log)
	}
	if err != nil {
		log.Error("fatal error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closeStorage, err := openPersister(ctx, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := scheduler.NewStore(persister, log)
	store.Load(ctx)

	botConfig := bot.DefaultConfig()
	botConfig.SendTimeout = config.SendTimeout()
	botConfig.SendRatePerSecond = config.SendRatePerSecond()

	b, err := bot.NewBot(config.BotToken(), botConfig, log)
	if err != nil {
		return err
	}

	// Напоминания
	reminders := scheduler.New(store, b, log)
	reminders.Start()
	defer reminders.Stop()
	reminders.ScheduleAll()

	maintenance := scheduler.NewMaintenance(reminders, config.ResyncInterval(), log)
	if err := maintenance.Start(); err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}
	defer maintenance.Stop()

	// HTTP сервер для проверки доступности
	server := &http.Server{
		Addr:              config.HTTPAddr(),
		Handler:           health.NewRouter(store, reminders, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", zap.Error(err))
		}
	}()

	dialog := bot.NewDialog(store, reminders, bot.NewStateStore(config.DialogIdleTimeout()), botConfig.Location, log)

	bot.Supervise(ctx, func(ctx context.Context) error {
		return b.Run(ctx, dialog)
	}, config.RestartDelay(), func() {
		reminders.ScheduleAll()
	}, log)

	log.Info("shutting down")

	// Даем время на graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown", zap.Error(err))
	}
	return nil
}

func export(path string, log *zap.Logger) error {
	ctx := context.Background()

	persister, closeStorage, err := openPersister(ctx, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := scheduler.NewStore(persister, log)
	store.Load(ctx)

	if err := excel.SaveSchedule(path, store.Snapshot(), time.Local); err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}
	log.Info("schedule exported", zap.String("path", path), zap.Int("users", store.UserCount()))
	return nil
}

func importSchedule(path string, log *zap.Logger) error {
	ctx := context.Background()

	persister, closeStorage, err := openPersister(ctx, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := scheduler.NewStore(persister, log)
	store.Load(ctx)

	result, err := excel.ImportSchedule(ctx, excel.DefaultImportConfig(path), store)
	if err != nil {
		return fmt.Errorf("import schedule: %w", err)
	}
	for _, rowErr := range result.Errors {
		log.Warn("row not imported", zap.String("error", rowErr))
	}
	log.Info("schedule imported",
		zap.String("path", path),
		zap.Int("rows", result.TotalProcessed),
		zap.Int("topics_created", result.TopicsCreated),
		zap.Int("completed", result.Completed),
		zap.Int("skipped", result.Skipped))
	return nil
}

// openPersister picks the storage backend named by STORAGE_DRIVER
func openPersister(ctx context.Context, log *zap.Logger) (scheduler.Persister, func(), error) {
	driver := config.StorageDriver()
	switch driver {
	case "json":
		log.Info("using json storage", zap.String("path", config.DataFile()))
		return database.NewFileStore(config.DataFile(), log), func() {}, nil
	case database.DriverSQLite, database.DriverPostgres:
		db, err := database.Connect(driver, config.DatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		sqlStore := database.NewSQLStore(db)
		if err := sqlStore.InitializeSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("using sql storage", zap.String("driver", driver))
		return sqlStore, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
