package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Gunvolt24/cdc_ingest/config"
	"github.com/Gunvolt24/cdc_ingest/internal/broker"
	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/health"
	"github.com/Gunvolt24/cdc_ingest/internal/kafka"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/internal/sink"
	rest "github.com/Gunvolt24/cdc_ingest/internal/transport/http"
	"github.com/Gunvolt24/cdc_ingest/pkg/logger"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
	"github.com/Gunvolt24/cdc_ingest/pkg/telemetry"
	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
	"github.com/gin-gonic/gin"
)

// App — собранное приложение и его внешние интерфейсы (health HTTP, consumer).
type App struct {
	Logger        ports.Logger               // логгер
	HTTPServer    *http.Server               // health/metrics сервер
	KafkaConsumer ports.MessageConsumer      // консьюмер сообщений
	Health        *health.Tracker            // состояние для /health (может быть nil)
	Events        chan domain.LifecycleEvent // события жизненного цикла консьюмера → Health
	ExitOnCrash   bool                       // падение консьюмера завершает процесс

	gracefulTimeout time.Duration // время ожидания завершения HTTP-сервера
	httpStarted     bool
	httpErr         chan error // ошибка Serve после старта
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// lifecycleBuffer — Subscribed/Crashed/Stopped за один запуск с запасом.
const lifecycleBuffer = 8

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → release и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to release", mode)
	}
}

// Bootstrap — собирает зависимости, создаёт топик и возвращает приложение.
// Исчерпание попыток провижининга возвращается как ошибка (*broker.FatalError).
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}
	closeLogger := func() {
		if cErr := cleanupLogger(); cErr != nil && !isStdoutSyncErr(cErr) {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
	}

	if err := cfg.Validate(); err != nil {
		logg.Errorw(ctx, "invalid configuration", "action", "config_invalid", "error", err.Error())
		closeLogger()
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	shutdownTrace := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, telemetry.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Topic:       cfg.Kafka.Topic,
			GroupID:     cfg.Kafka.GroupID,
		})
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}
	fail := func(err error) (*App, Cleanup, error) {
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		closeLogger()
		return nil, func() {}, err
	}

	// Соединение с брокерами.
	conn, err := broker.NewConnection(cfg.Kafka.Brokers, cfg.Kafka.DialTimeout)
	if err != nil {
		return fail(err)
	}

	// Состояние консьюмера для health.
	events := make(chan domain.LifecycleEvent, lifecycleBuffer)
	tracker := health.NewTracker(cfg.Kafka.Topic, cfg.Kafka.GroupID, logg)

	// Конфигурация и создание консьюмера Kafka.
	kafkaCfg := kafka.ConsumerConfig{
		Brokers:         conn.Brokers(),
		Topic:           cfg.Kafka.Topic,
		GroupID:         cfg.Kafka.GroupID,
		StartOffset:     cfg.Kafka.StartOffset,
		RetryInitial:    cfg.Kafka.RetryInitial,
		RetryMax:        cfg.Kafka.RetryMax,
		FetchMaxRetries: cfg.Kafka.FetchMaxRetries,
		Logger:          logger.KafkaLogger(logg),
		ErrorLogger:     logger.KafkaErrorLogger(logg),
	}
	consumer := kafka.NewConsumer(&kafkaCfg, conn, validate.NewEventDecoder(), sink.NewLogSink(logg), events, logg)

	// Режим Gin.
	applyGinMode(ctx, cfg.Health.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	router := rest.NewRouter(rest.NewHandler(tracker, logg), otelServiceName)
	httpSrv := &http.Server{
		Addr:              cfg.Health.Addr,
		Handler:           router,
		ReadTimeout:       cfg.Health.ReadTimeout,
		WriteTimeout:      cfg.Health.WriteTimeout,
		ReadHeaderTimeout: cfg.Health.ReadHeaderTimeout,
		IdleTimeout:       cfg.Health.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		KafkaConsumer:   consumer,
		Health:          tracker,
		Events:          events,
		ExitOnCrash:     cfg.Kafka.ExitOnCrash,
		gracefulTimeout: cfg.Health.GracefulTimeout,
	}

	// Health-сервер поднимается до провижининга: пока топик создаётся, /health отвечает 503 starting.
	if err := app.StartHTTP(ctx); err != nil {
		logg.Errorw(ctx, "health server failed", "action", "http_server_error", "error", err.Error())
		return fail(fmt.Errorf("health server: %w", err))
	}
	stopHTTP := func() {
		gt := cfg.Health.GracefulTimeout
		if gt <= 0 {
			gt = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logg.Warnf(ctx, "http server shutdown failed: %v", err)
		}
	}

	// Провижининг топика до подписки.
	spec := domain.TopicSpec{
		Name:              cfg.Kafka.Topic,
		Partitions:        cfg.Kafka.TopicPartitions,
		ReplicationFactor: cfg.Kafka.TopicReplication,
	}
	provisioner := broker.NewProvisioner(conn, broker.Policy{
		MaxAttempts: cfg.Kafka.TopicCreateAttempts,
		BaseBackoff: cfg.Kafka.TopicCreateBackoff,
		MaxBackoff:  cfg.Kafka.TopicCreateBackoffMax,
		LeaderWait:  cfg.Kafka.TopicLeaderWait,
	}, logg)
	if err := provisioner.EnsureTopic(ctx, spec); err != nil {
		logg.Errorw(ctx, "topic provisioning failed",
			"action", "topic_provision_failed",
			"topic", spec.Name,
			"error", err.Error(),
		)
		stopHTTP()
		return fail(fmt.Errorf("provision topic: %w", err))
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		if err := consumer.Close(); err != nil {
			logg.Warnf(ctx, "kafka consumer close error: %v", err)
		}
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		closeLogger()
	}

	return app, cleanup, nil
}

// Run — запускает health-сервер, трекер и консьюмера; ждёт отмены контекста или ошибки.
// Падение консьюмера при ExitOnCrash возвращается как ошибка (процесс завершается),
// иначе сервис продолжает отдавать /health со статусом crashed до остановки.
func (a *App) Run(ctx context.Context) error {
	consumerDone := make(chan error, 1)

	// Трекер состояния.
	trackerDone := make(chan struct{})
	if a.Health != nil && a.Events != nil {
		go func() {
			defer close(trackerDone)
			a.Health.Run(ctx, a.Events)
		}()
	} else {
		close(trackerDone)
	}

	// Запуск консьюмера.
	go func() {
		a.Logger.Infof(ctx, "kafka consumer starting")
		consumerDone <- a.KafkaConsumer.Run(ctx)
	}()

	// Запуск HTTP-сервера (если ещё не запущен в Bootstrap).
	if err := a.StartHTTP(ctx); err != nil {
		a.httpErr <- err
	}
	httpErr := a.httpErr

	// Ожидание сигнала остановки или фоновой ошибки.
	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-httpErr:
		a.Logger.Errorw(ctx, "health server failed", "action", "http_server_error", "error", err.Error())
		runErr = fmt.Errorf("health server: %w", err)
	case err := <-consumerDone:
		runErr = a.consumerStopped(ctx, err, httpErr)
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	// Остановка Kafka-консьюмера
	if err := a.KafkaConsumer.Close(); err != nil {
		a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
	}

	// трекер дочитывает события до отмены ctx или закрытия канала
	if runErr == nil {
		<-trackerDone
	}

	a.Logger.Infof(ctx, "service stopped")
	return runErr
}

// StartHTTP — слушает адрес health-сервера и обслуживает его в фоне. Повторный вызов ничего не делает.
// Ошибка занятого адреса возвращается сразу, ошибка Serve — через Run.
func (a *App) StartHTTP(ctx context.Context) error {
	if a.httpErr == nil {
		a.httpErr = make(chan error, 1)
	}
	if a.httpStarted {
		return nil
	}
	a.httpStarted = true

	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return err
	}
	a.Logger.Infof(ctx, "health server starting (addr=%s)", ln.Addr())
	go func() {
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.httpErr <- err
		}
	}()
	return nil
}

// consumerStopped — реакция на выход консьюмера до сигнала остановки.
func (a *App) consumerStopped(ctx context.Context, err error, httpErr <-chan error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.Logger.Infof(ctx, "kafka consumer stopped: %v", err)
		if ctx.Err() == nil {
			// штатный выход без сигнала — ждём остановки сервиса
			return a.waitShutdown(ctx, httpErr)
		}
		return nil
	}

	if a.ExitOnCrash {
		a.Logger.Errorw(ctx, "kafka consumer crashed, exiting",
			"action", "consumer_crash_exit",
			"error", err.Error(),
		)
		return fmt.Errorf("kafka consumer: %w", err)
	}

	a.Logger.Errorw(ctx, "kafka consumer crashed, health reports crashed until shutdown",
		"action", "consumer_crash_degraded",
		"error", err.Error(),
	)
	return a.waitShutdown(ctx, httpErr)
}

func (a *App) waitShutdown(ctx context.Context, httpErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-httpErr:
		return fmt.Errorf("health server: %w", err)
	}
}

// isStdoutSyncErr — Sync у stdout на части платформ возвращает EINVAL/ENOTTY.
func isStdoutSyncErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
