// Surfer API — сервер автоматизации браузера.
//
// Процесс:
//   - поднимает health endpoint (HEALTH_PORT) до подключения к БД
//   - инициализирует хранилище (retry, fallback на SQLite, degraded режим)
//   - выбирает браузерный движок (chromedp, playwright или заглушка)
//   - запускает HTTP API (API_PORT) и фоновые прогоны задач
//   - при заданном RABBITMQ_URL публикует события задач и принимает
//     команды остановки из очереди tasks.control
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Surfer/internal/api"
	"github.com/shaiso/Surfer/internal/browser"
	"github.com/shaiso/Surfer/internal/config"
	"github.com/shaiso/Surfer/internal/executor"
	"github.com/shaiso/Surfer/internal/health"
	"github.com/shaiso/Surfer/internal/llm"
	"github.com/shaiso/Surfer/internal/mq"
	"github.com/shaiso/Surfer/internal/provision"
	"github.com/shaiso/Surfer/internal/store"
	"github.com/shaiso/Surfer/internal/telemetry"
	"github.com/shaiso/Surfer/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting surfer-api")

	if err := run(logger); err != nil {
		logger.Error("surfer-api failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Health endpoint не зависит от хранилища и стартует первым.
	hs := health.New(cfg.HealthAddr(), cfg.HealthWindow, logger)
	if err := hs.Start(ctx); err != nil {
		return err
	}

	// Хранилище
	target, err := store.ResolveTarget(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	db := store.New(store.Config{
		Target:       target,
		FallbackPath: cfg.FallbackDBPath,
		Production:   cfg.Production,
		Logger:       logger,
	})
	if err := db.Initialize(ctx, cfg.DBMaxRetries, cfg.DBRetryDelay); err != nil {
		return err
	}
	defer db.Close()

	// Браузер
	registry := provision.New(provision.Config{Attempts: cfg.ProvisionTries, Logger: logger})
	registry.Register(provision.PlaywrightCapability{})
	registry.Register(&provision.ChromiumCapability{})
	engine := registry.SelectEngine(ctx, cfg.BrowserEngine)

	browsers := browser.NewFactory(engine, logger)

	exec := executor.New(executor.Config{
		LLM:          llm.NewFactory(),
		Browsers:     browsers,
		Env:          browser.Environment{Production: cfg.Production},
		ArtifactRoot: cfg.ScreenshotsRoot,
		MaxSteps:     cfg.AgentMaxSteps,
		Logger:       logger,
	})

	// RabbitMQ (опционально)
	var (
		mqConn    *mq.Connection
		publisher worker.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqConn, err = connectMQ(ctx, cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events disabled", "error", err)
		} else {
			defer mqConn.Close()
			publisher = mq.NewPublisher(mqConn, logger)
		}
	}

	w := worker.New(worker.Config{
		DB:        db,
		Runner:    exec,
		Publisher: publisher,
		Logger:    logger,
	})
	if !db.Degraded() {
		if _, err := w.Recover(ctx); err != nil {
			logger.Warn("recover interrupted tasks", "error", err)
		}
	}

	handler := api.NewHandler(api.Config{
		DB:           db,
		Service:      w,
		Engine:       browsers.Engine(),
		Capabilities: registry,
		Logger:       logger,
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.APIAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if mqConn != nil {
		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:   mq.QueueTaskControl,
			Handler: w.HandleControl,
		})
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return errors.Join(
			server.Shutdown(shutdownCtx),
			w.Shutdown(shutdownCtx),
			hs.Shutdown(shutdownCtx),
		)
	})

	return g.Wait()
}

// connectMQ подключается к брокеру и объявляет топологию.
func connectMQ(ctx context.Context, url string, logger *slog.Logger) (*mq.Connection, error) {
	conn, err := mq.NewConnection(url, logger)
	if err != nil {
		return nil, err
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
