package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/app"
	"github.com/Freeeeeet/tutor_scheduler/internal/config"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller"
	"github.com/Freeeeeet/tutor_scheduler/internal/history"
	"github.com/Freeeeeet/tutor_scheduler/internal/metrics"
	"github.com/Freeeeeet/tutor_scheduler/internal/moderation"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_TOKEN is required but not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.Info("Database schema ready", zap.Int64("version", version))
	}

	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	forumRepo := repository.NewForumRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger)
	userService := service.NewUserService(userRepo, logger)
	scheduleService := service.NewScheduleService(userRepo, courseRepo, enrollmentRepo, sessionRepo, bookingRepo, notificationService, logger)
	enrollmentService := service.NewEnrollmentService(userRepo, courseRepo, enrollmentRepo, notificationService, logger)
	forumService := service.NewForumService(
		userRepo,
		forumRepo,
		historyStore(ctx, cfg, logger),
		moderation.NewFilter(),
		service.ForumConfig{
			MinLength:   cfg.ModerationMinLength,
			MaxLength:   cfg.ModerationMaxLength,
			HistorySize: cfg.ModerationHistorySize,
		},
		notificationService,
		logger,
	)

	b, err := bot.New(cfg.TelegramToken, bot.WithMiddlewares(controller.LoggingMiddleware(logger)))
	if err != nil {
		return err
	}

	ctrl := controller.NewBotController(b, controller.Services{
		Users:         userService,
		Schedule:      scheduleService,
		Enrollment:    enrollmentService,
		Forum:         forumService,
		Notifications: notificationService,
	}, cfg.Location, logger)
	notificationService.SetNotifier(ctrl)

	if err := ctrl.RegisterHandlers(ctx); err != nil {
		return err
	}

	scheduler := app.NewScheduler(scheduleService, cfg.SessionSweepInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go serveMetrics(ctx, cfg.MetricsAddr, logger)

	logger.Info("Starting tutor scheduler bot",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
	)
	ctrl.Start(ctx)
	return nil
}

// historyStore returns nil when Redis is unreachable; the forum then reads
// recent posts from the database.
func historyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) service.HistoryStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, moderation history falls back to database",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return history.NewStore(client, cfg.ModerationHistorySize, history.DefaultTTL)
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", zap.Error(err))
	}
}
