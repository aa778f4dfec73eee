package main

import (
	"formhub/config"
	"formhub/handlers"
	"formhub/middleware"
	"formhub/models"
	"formhub/routes"
	"formhub/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Question{},
		&models.Option{},
		&models.Tag{},
		&models.Form{},
		&models.Answer{},
		&models.Comment{},
		&models.Like{},
	)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize Redis-backed listing cache
	redisClient := config.InitRedis(cfg)
	cache := services.NewTemplateCache(redisClient, cfg.CacheTTL, logger)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, logger)
	templateService := services.NewTemplateService(db, cache, logger)
	formService := services.NewFormService(db, logger)
	socialService := services.NewSocialService(db, cache, logger)
	userService := services.NewUserService(db, logger)
	ticketService := services.NewTicketService(cfg.Jira, logger)
	crmService := services.NewCRMService(cfg.Salesforce, logger)

	// Initialize metrics and the live results hub
	metrics := middleware.InitMetrics()
	hub := services.NewResultsHub(logger)
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	templateHandler := handlers.NewTemplateHandler(templateService, socialService)
	formHandler := handlers.NewFormHandler(formService, hub, metrics)
	userHandler := handlers.NewUserHandler(userService, templateService, crmService)
	adminHandler := handlers.NewAdminHandler(userService)
	ticketHandler := handlers.NewTicketHandler(ticketService, metrics)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(metrics.RequestCounter())

	routes.SetupRoutes(router,
		authHandler, templateHandler, formHandler, userHandler, adminHandler, ticketHandler,
		hub, templateService, cfg.JWTSecret, logger)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	logger.Info("server starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
