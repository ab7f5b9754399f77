// Package main provides the main entry point for the donor administration service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/dispatcher"
	"github.com/helpinghand/donor-admin/app/handlers"
	"github.com/helpinghand/donor-admin/app/middleware"
	"github.com/helpinghand/donor-admin/app/router"
	"github.com/helpinghand/donor-admin/app/services"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting donor-admin application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// Redis is optional: when disabled the dispatcher falls back to in-process
// coordination only.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeEmailService picks the provider implementation from configuration
func initializeEmailService(cfg *config.ProductionConfig) services.EmailService {
	if cfg.EmailProvider.UseMock {
		log.Println("Using mock email service")
		return services.NewMockEmailService()
	}
	return services.NewEmailService(&cfg.EmailProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	donorRepo := repository.NewDonorRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	recipientRepo := repository.NewCampaignRecipientRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	emailService := initializeEmailService(cfg)
	if !emailService.IsConfigured() {
		// Deliberately a warning, not a fatal error: the rest of the
		// application works without provider credentials; sends fail with a
		// configuration error until they are set.
		log.Println("WARNING: email provider credentials are missing or placeholder; campaign sends will fail until EMAIL_API_KEY and EMAIL_FROM_EMAIL are configured")
	}

	captchaService, err := services.NewCaptchaService(2*time.Minute, 15, 300)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha service: %w", err)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Start the campaign dispatcher
	campaignDispatcher := dispatcher.NewCampaignDispatcher(
		db,
		campaignRepo,
		donorRepo,
		recipientRepo,
		auditRepo,
		emailService,
		rc,
		cfg.Dispatch,
	)
	stopDispatcher := campaignDispatcher.Start(context.Background())
	stopFuncs = append(stopFuncs, stopDispatcher)

	// Initialize flows
	loginFlow := businessflow.NewLoginFlow(
		userRepo,
		auditRepo,
		tokenService,
		captchaService,
		cfg.Security.CaptchaEnabled,
		db,
	)

	donorFlow := businessflow.NewDonorFlow(donorRepo, auditRepo, db)

	donationFlow := businessflow.NewDonationFlow(donationRepo, donorRepo, auditRepo, db)

	campaignFlow := businessflow.NewCampaignFlow(
		campaignRepo,
		donorRepo,
		recipientRepo,
		auditRepo,
		emailService,
		campaignDispatcher,
		db,
	)

	reportFlow := businessflow.NewReportFlow(donorRepo, donationRepo, auditRepo)

	mediaFlow := businessflow.NewMediaFlow(cfg.Media, auditRepo)

	// Initialize handlers
	h := router.Handlers{
		Auth:     handlers.NewAuthHandler(loginFlow),
		Donor:    handlers.NewDonorHandler(donorFlow),
		Donation: handlers.NewDonationHandler(donationFlow),
		Campaign: handlers.NewCampaignHandler(campaignFlow),
		Report:   handlers.NewReportHandler(reportFlow),
		Media:    handlers.NewMediaHandler(mediaFlow),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(h, authMiddleware, cfg)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
