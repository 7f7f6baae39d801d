package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doctor-appointment-api/config"
	deliveryHttp "doctor-appointment-api/internal/delivery/http"
	"doctor-appointment-api/internal/delivery/http/handler"
	"doctor-appointment-api/internal/delivery/http/middleware"
	"doctor-appointment-api/internal/infrastructure/cache"
	"doctor-appointment-api/internal/infrastructure/database"
	"doctor-appointment-api/internal/infrastructure/payment"
	"doctor-appointment-api/internal/jobs"
	"doctor-appointment-api/internal/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/internal/usecase"
	"doctor-appointment-api/pkg/jwt"
	"doctor-appointment-api/pkg/validator"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config       *config.Config
	DB           *gorm.DB
	RedisClient  *redis.Client
	Server       *http.Server
	ReconcileJob *jobs.PaymentReconcileJob
	log          *logrus.Logger
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.App.LogLevel)
	app := &App{Config: cfg, log: log}
	log.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	if err := database.RunMigrations(db, log); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	if err := app.initialize(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the process-wide logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// initialize wires repositories, services, usecases and the HTTP server.
func (app *App) initialize() error {
	cfg, db, redisClient, log := app.Config, app.DB, app.RedisClient, app.log

	paymentGateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	log.Infof("Payment provider: %s", paymentGateway.Name())

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Repositories
	userRepo := repository.NewUserRepository()
	roleRepo := repository.NewRoleRepository()
	categoryRepo := repository.NewCategoryRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	paymentRepo := repository.NewPaymentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Services
	auditService := service.NewAuditService(log, auditLogRepo)
	slotCache := service.NewSlotCache(redisClient, log, cfg.App.SlotCacheTTL)
	tokenStore := service.NewTokenStore(redisClient, log)

	// Usecases
	slotLedger := usecase.NewSlotLedger(log, appointmentRepo, doctorProfileRepo, slotCache)
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, roleRepo, auditService, jwtService, tokenStore)
	categoryUsecase := usecase.NewCategoryUsecase(db, log, categoryRepo, auditService)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(db, log, doctorProfileRepo, categoryRepo, slotLedger, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, slotLedger, auditService)
	paymentUsecase := usecase.NewPaymentUsecase(db, log, appointmentRepo, doctorProfileRepo, paymentRepo,
		auditService, paymentGateway, cfg.Payment, cfg.Reconcile)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	paymentHandler := handler.NewPaymentHandler(paymentUsecase, customValidator)
	categoryHandler := handler.NewCategoryHandler(categoryUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorProfileUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	// Middleware
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.AllowedOrigins)
	metricsMiddleware := middleware.NewMetricsMiddleware(registry)

	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		paymentHandler,
		categoryHandler,
		doctorHandler,
		auditLogHandler,
		healthHandler,
		authMiddleware,
		corsMiddleware,
		metricsMiddleware,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(router.Setup()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Each run gets the payment timeout per provider call plus headroom for the batch.
	reconcileTimeout := cfg.Payment.Timeout*time.Duration(cfg.Reconcile.BatchSize) + 30*time.Second
	app.ReconcileJob = jobs.NewPaymentReconcileJob(log, paymentUsecase, cfg.Reconcile.Schedule, reconcileTimeout)

	return nil
}

// Run starts the HTTP server and the reconcile job, then blocks until shutdown
func (app *App) Run() {
	if err := app.ReconcileJob.Start(); err != nil {
		app.log.Fatalf("Failed to start payment reconcile job: %v", err)
	}

	go func() {
		app.log.Infof("Server starting on port %s", app.Config.App.Port)
		app.log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.log.Errorf("Server forced to shutdown: %v", err)
	}

	// Stop waits for an in-flight reconcile run.
	app.ReconcileJob.Stop()

	app.Close()

	app.log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
