package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/scam-sniffer/internal/analysis"
	"github.com/richxcame/scam-sniffer/internal/auth"
	"github.com/richxcame/scam-sniffer/internal/coordination"
	"github.com/richxcame/scam-sniffer/internal/realtime"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/config"
	"github.com/richxcame/scam-sniffer/pkg/database"
	"github.com/richxcame/scam-sniffer/pkg/events"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	"github.com/richxcame/scam-sniffer/pkg/ratelimit"
	"github.com/richxcame/scam-sniffer/pkg/redis"
	"github.com/richxcame/scam-sniffer/pkg/tracing"
	ws "github.com/richxcame/scam-sniffer/pkg/websocket"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("scam-sniffer")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Optional Sentry error reporting
	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     "scam-sniffer@" + version,
		}); err != nil {
			logger.Fatal("Failed to initialize Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Optional OpenTelemetry tracing
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(context.Background(), cfg.Server.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	// Apply database migrations
	if err := database.RunMigrations(&cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(context.Background(), &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Optional NATS publisher for external alert observers
	var publisher events.Publisher
	if cfg.NATS.Enabled {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("Connected to NATS")
	}

	// Coordination window: one per process, shared by every submission
	window := coordination.NewWindow(cfg.Analyzer.CoordinationWindow)

	// Websocket hub
	hub := ws.NewHub()

	// Services and handlers
	analysisRepo := analysis.NewRepository(pool)
	analysisService := analysis.NewService(analysisRepo, window)

	realtimeService := realtime.NewService(hub, analysisService, cfg.Analyzer.MaxTextLength)
	analysisService.WithBroadcaster(realtimeService.Broadcaster())
	if publisher != nil {
		analysisService.WithPublisher(publisher, cfg.NATS.Subject)
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, redisClient, cfg.JWT.Secret, cfg.JWT.Expiration)

	authHandler := auth.NewHandler(authService)
	analysisHandler := analysis.NewHandler(analysisService)
	adminHandler := analysis.NewAdminHandler(analysisService, authRepo)
	realtimeHandler := realtime.NewHandler(hub)

	go hub.Run()
	logger.Info("WebSocket hub started")

	limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, version, map[string]func(context.Context) error{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", middleware.AuthMiddleware(cfg.JWT.Secret, redisClient), authHandler.Logout)
		api.GET("/auth/me", middleware.AuthMiddleware(cfg.JWT.Secret, redisClient), authHandler.Me)

		// Analysis is open to anonymous users; identity is attached
		// when a valid token is supplied
		api.POST("/analyze/text", middleware.OptionalAuth(cfg.JWT.Secret), limiter.Middleware(), analysisHandler.AnalyzeText)

		// Websocket connection (anonymous allowed, identity optional)
		api.GET("/ws", middleware.OptionalAuth(cfg.JWT.Secret), realtimeHandler.HandleWebSocket)
		api.GET("/live-users", realtimeHandler.GetLiveUserCount)

		// Admin endpoints
		admin := api.Group("/admin", middleware.AuthMiddleware(cfg.JWT.Secret, redisClient), middleware.RequireAdmin())
		{
			admin.GET("/history", adminHandler.GetHistory)
			admin.GET("/history/export", adminHandler.ExportHistory)
			admin.DELETE("/history/:id", adminHandler.DeleteHistoryRecord)
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/users", authHandler.ListUsers)
		}
	}

	// Start server
	addr := ":" + cfg.Server.Port
	logger.Info("scam-sniffer API starting on " + addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
