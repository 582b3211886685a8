package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/config"
	"github.com/VeinDevTtv/ugcbounty-sub000/handlers"
	"github.com/VeinDevTtv/ugcbounty-sub000/middleware"
	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/services"
	"github.com/VeinDevTtv/ugcbounty-sub000/utils"
	"github.com/VeinDevTtv/ugcbounty-sub000/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := utils.NewLogger(cfg.AppEnv, cfg.AppName)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Cache: local TinyLFU always, Redis when configured
	var cache *utils.RedisCache
	if cfg.RedisURL != "" {
		redisClient, err := utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache = utils.NewCache(redisClient)
	} else {
		logger.Warn("REDIS_URL not set, using in-process cache only")
		cache = utils.NewCache(nil)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    10 * 1024 * 1024, // logos
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Logo storage: R2 in deployed environments, local disk otherwise
	var storage services.LogoStore
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Storage(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		storage = r2
	} else {
		local, err := utils.NewLocalStorage("./uploads", "/uploads")
		if err != nil {
			logger.Fatal("failed to ensure upload dir", zap.Error(err))
		}
		app.Static("/uploads", "./uploads")
		storage = local
	}

	httpClient := utils.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPRetryCount)

	var ai services.TextGenerator
	if cfg.Gemini.APIKey != "" {
		gemini, err := services.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Models)
		if err != nil {
			logger.Fatal("failed to initialize gemini", zap.Error(err))
		}
		ai = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, submissions stay pending for manual review")
	}

	var validator services.ContentValidator
	if ai != nil {
		validator = services.NewAIContentValidator(ai)
	}

	if cfg.Clerk.JWKSURL == "" {
		logger.Fatal("CLERK_JWKS_URL environment variable not set")
	}
	clerkKeyfunc, err := middleware.NewClerkKeyfunc(ctx, cfg.Clerk.JWKSURL)
	if err != nil {
		logger.Fatal("failed to load clerk keys", zap.Error(err))
	}
	auth := middleware.UserContextMiddleware(middleware.AuthConfig{
		Keyfunc: clerkKeyfunc,
		Issuer:  cfg.Clerk.Issuer,
	})

	bountyService := services.NewBountyService(db, storage, cfg.Stripe.Currency)
	submissionService := services.NewSubmissionService(db,
		services.NewMetadataFetcher(httpClient, cache, cfg.LinkPreviewURL), validator)
	recommendationService := services.NewRecommendationService(db, bountyService, services.NewRecommender(ai))
	userService := services.NewUserService(db)
	refreshService := services.NewRefreshService(db,
		services.NewPlatformViewCounter(httpClient, cfg.YouTubeAPIKey, cfg.ViewScraperURL), cfg.RefreshConcurrency)

	var paymentService *services.PaymentService
	if cfg.Stripe.SecretKey != "" {
		paymentService = services.NewPaymentService(db, services.NewStripeGateway(cfg.Stripe.SecretKey),
			cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
		go workers.PollPayments(ctx, paymentService, cfg.ReconcileEvery)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, wallet top-ups disabled")
	}

	var clerkWebhooks *services.ClerkWebhookService
	if cfg.Clerk.WebhookSecret != "" {
		clerkWebhooks, err = services.NewClerkWebhookService(db, cfg.Clerk.WebhookSecret)
		if err != nil {
			logger.Fatal("failed to initialize clerk webhooks", zap.Error(err))
		}
	}

	if _, err := workers.StartViewRefreshScheduler(ctx, refreshService, cfg.ViewRefreshEvery); err != nil {
		logger.Fatal("failed to start view refresh scheduler", zap.Error(err))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})
	handlers.SetupBountyRoutes(app, auth, bountyService)
	handlers.SetupSubmissionRoutes(app, auth, submissionService, recommendationService)
	handlers.SetupAccountRoutes(app, auth, userService, paymentService)
	handlers.SetupWebhookRoutes(app, paymentService, clerkWebhooks)
	handlers.SetupInternalRoutes(app, cfg.ServiceToken, refreshService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	logger.Info("server running",
		zap.String("port", cfg.Port),
		zap.Strings("cors_origins", cfg.AllowedOrigins),
		zap.Duration("view_refresh_every", cfg.ViewRefreshEvery),
	)

	<-ctx.Done()
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		zap.L().Error("[HTTP] request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(code).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
