package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"medhistory/cmd"
	"medhistory/internal/data/repository"
	"medhistory/internal/notify"
	"medhistory/internal/queue"
	"medhistory/internal/token"
	"medhistory/internal/wire"
	"medhistory/migrations"
	"medhistory/pkg/database"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.Migrate(ctx, db, migrations.FS, logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	repos := repository.NewRepository(db, logger)

	smsSender, err := notify.NewSMSSender(config.SMS, logger)
	if err != nil {
		logger.Fatal("Failed to configure SMS sender", zap.Error(err))
	}
	emailSender, err := notify.NewEmailSender(config.Email, logger)
	if err != nil {
		logger.Fatal("Failed to configure email sender", zap.Error(err))
	}

	mailQueue, err := cmd.OpenMailQueue(config, logger)
	if err != nil {
		logger.Fatal("Failed to open mail queue", zap.Error(err))
	}
	defer mailQueue.Close()

	var outbox notify.MailQueue
	var workers sync.WaitGroup
	if mailQueue != nil {
		outbox = queue.NewOutbox(mailQueue.Publisher)
		logger.Info("Mail queue enabled", zap.String("driver", config.Queue.Driver))

		if config.Queue.WorkerEnabled {
			workers.Add(1)
			go func() {
				defer workers.Done()
				cmd.MailWorker(ctx, mailQueue, emailSender, config, logger)
			}()
		}
	}

	dispatcher := notify.NewDispatcher(smsSender, emailSender, outbox, notify.DispatcherConfig{
		From:        config.Email.From,
		Timeout:     config.Notify.Timeout,
		MaxAttempts: config.Notify.MaxAttempts,
	}, logger)

	tokens := token.NewManager(
		config.JWT.AccessSecret,
		config.JWT.RefreshSecret,
		config.Activation.Secret,
		config.JWT.AccessTTL,
		config.JWT.RefreshTTL,
		config.Activation.TTL,
	)

	app := wire.Wiring(repos, tokens, dispatcher, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}

	stop()
	dispatcher.Close()
	dispatcher.Wait()
	workers.Wait()
	logger.Info("Shutdown complete")
}
