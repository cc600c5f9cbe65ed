package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/config"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/database"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/logging"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/notify"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/presenter"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/routes"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/worker"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(logging.GormSink(db), 5*time.Second)
	logging.Attach(pgLogHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Remote document store
	var (
		store    docstore.Store
		verifier identity.TokenVerifier
	)
	switch cfg.StoreDriver {
	case "memory":
		store = docstore.NewMemory()
		slog.Warn("using in-memory document store")
	default:
		fs, auth, err := openFirebase(ctx, cfg)
		if err != nil {
			slog.Error("firebase init failed", "error", err)
			os.Exit(1)
		}
		store, verifier = fs, auth
	}

	// Local mirror and its change feed
	var changes mirror.Notifier = mirror.NewLocalNotifier()
	checks := map[string]handlers.Pinger{
		"database": func(context.Context) error { return database.Ping(db) },
		"store":    store.Ping,
	}
	if cfg.RedisURL != "" {
		rdb, err := mirror.ConnectRedis(cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		rn := mirror.NewRedisNotifier(rdb)
		changes = rn
		checks["redis"] = rn.Ping
	}

	var local mirror.Mirror
	switch cfg.MirrorDriver {
	case "memory":
		local = mirror.NewMemory(changes)
	default:
		if err := database.MigrateMirror(db); err != nil {
			slog.Error("mirror migration failed", "error", err)
			os.Exit(1)
		}
		local = mirror.NewGorm(db, changes)
	}
	checks["mirror"] = local.Ping

	// Identity
	credentials := identity.NewGormCredentials(db)
	ids := identity.NewService(identity.NewPasswordProvider(credentials))
	if verifier != nil {
		ids.With(identity.MethodGoogle, identity.NewGoogleProvider(verifier))
	}
	if len(cfg.AppleClientIDs) > 0 {
		ids.With(identity.MethodApple, identity.NewAppleProvider(identity.NewAppleKeys(""), credentials, cfg.AppleClientIDs))
	}
	sessions := identity.NewSessionManager(identity.NewGormRefreshStore(db), cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)

	// Repositories
	authRepo := repository.NewAuthRepository(ids, sessions, store, local)
	eventRepo := repository.NewEventRepository(store, local)

	// Notifications
	notifier, closeNotifiers := buildNotifier(cfg)
	async := notify.NewAsync(notifier, 10*time.Second)

	opts := presenter.Options{
		Notifier:      async,
		Filter:        moderation.NewFilter(),
		FlashDuration: cfg.FlashDuration,
	}

	// Background jobs
	syncDone := worker.StartMirrorSync(ctx, eventRepo, cfg.MirrorSyncInterval)
	remindersDone := worker.StartReminders(ctx, worker.NewReminders(eventRepo, async), cfg.ReminderInterval)

	// Handlers
	authHandler := handlers.NewAuthHandler(authRepo, opts)
	eventHandler := handlers.NewEventHandler(eventRepo, opts, time.Local)
	catalogHandler := handlers.NewCatalogHandler()
	legalHandler := handlers.NewLegalHandler(cfg.AppName)
	healthHandler := handlers.NewHealthHandler(checks)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, authHandler, eventHandler, catalogHandler, legalHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stop()
	<-syncDone
	<-remindersDone
	async.Wait()
	closeNotifiers()

	if err := store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	closeDB(db)
	slog.Info("server stopped")
}

// openFirebase builds the Firestore store and the token verifier from one
// Firebase app.
func openFirebase(ctx context.Context, cfg *config.Config) (*docstore.Firestore, identity.TokenVerifier, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	fb, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("new app: %w", err)
	}
	client, err := fb.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("firestore: %w", err)
	}
	auth, err := fb.Auth(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("auth: %w", err)
	}
	slog.Info("firebase connected", "project", cfg.FirebaseProjectID)
	return docstore.NewFirestore(client), auth, nil
}

// buildNotifier always logs and adds Telegram and Kafka when configured.
func buildNotifier(cfg *config.Config) (notify.Notifier, func()) {
	chain := notify.Multi{notify.Log{}}
	var closers []func() error

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			slog.Error("telegram notifier disabled", "error", err)
		} else {
			chain = append(chain, tg)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		if err != nil {
			slog.Error("kafka notifier disabled", "error", err)
		} else {
			chain = append(chain, k)
			closers = append(closers, k.Close)
		}
	}

	return chain, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Error("notifier close error", "error", err)
			}
		}
	}
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}
}
