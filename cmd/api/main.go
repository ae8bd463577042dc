package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "occ-api/api/swagger" // swagger docs
	"occ-api/internal/broker"
	"occ-api/internal/config"
	"occ-api/internal/database"
	"occ-api/internal/handler"
	"occ-api/internal/logger"
	"occ-api/internal/middleware"
	"occ-api/internal/repository"
	"occ-api/internal/service"
	"occ-api/internal/taxcalc"
	"occ-api/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           OCC Tax Planning API
// @version         1.0
// @description     Tax regime comparison, client management and content for an accounting office.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ref, err := loadReference(cfg.ReferenceDataPath)
	if err != nil {
		zl.Fatal("reference data load failed", zap.Error(err))
	}
	calc, err := taxcalc.NewCalculator(ref)
	if err != nil {
		zl.Fatal("calculator init failed", zap.Error(err))
	}
	zl.Info("reference data loaded", zap.String("version", ref.Version()))

	db, err := database.NewConnection(cfg.DSN(), cfg.DBMaxConns, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	zl.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zl)
	go wsHub.Run()

	publisher := newPublisher(cfg, zl)
	defer func() { _ = publisher.Close() }()

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	clientRepo := repository.NewClientRepository(db)
	reportRepo := repository.NewTaxReportRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	planRepo := repository.NewTaxPlanRepository(db)
	activityRepo := repository.NewActivityTypeRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	auditService := service.NewAuditService(auditRepo, zl)
	roleService := service.NewRoleService(roleRepo, txManager)
	userService := service.NewUserService(userRepo, tokenRepo, roleService, auditService, service.AuthSettings{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, zl)
	clientService := service.NewClientService(clientRepo, userRepo, tokenRepo, txManager, auditService)
	cnaeService := service.NewCNAEService(ref, cfg.CNAECacheTTL, auditService)
	taxService := service.NewTaxCalculationService(calc, reportRepo, clientRepo, wsHub, publisher, auditService, zl)
	postService := service.NewPostService(postRepo, categoryRepo, auditService)
	surveyService := service.NewSurveyService(surveyRepo, txManager, auditService)
	planService := service.NewTaxPlanService(planRepo, clientRepo, calc, auditService)
	activityService := service.NewActivityTypeService(activityRepo, auditService)
	statisticsService := service.NewStatisticsService(statsRepo)

	ctx := context.Background()
	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		zl.Fatal("role seeding failed", zap.Error(err))
	}
	if cfg.SeedAdminEmail != "" {
		if err := userService.SeedSuperAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			zl.Error("super admin seeding failed", zap.Error(err))
		}
	}

	middleware.InitAuth([]byte(cfg.JWTSecret), roleRepo, cfg.IsRelease())

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zl), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "reference_version": ref.Version()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	api := router.Group("/api")
	handler.NewUserHandler(userService, cfg.AccessTokenTTL, cfg.RefreshTokenTTL).RegisterRoutes(api)
	handler.NewRoleHandler(roleService).RegisterRoutes(api)
	handler.NewClientHandler(clientService).RegisterRoutes(api)
	handler.NewCNAEHandler(cnaeService).RegisterRoutes(api)
	handler.NewTaxCalculationHandler(taxService).RegisterRoutes(api)
	handler.NewPostHandler(postService).RegisterRoutes(api)
	handler.NewSurveyHandler(surveyService).RegisterRoutes(api)
	handler.NewTaxPlanHandler(planService).RegisterRoutes(api)
	handler.NewActivityTypeHandler(activityService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewStatisticsHandler(statisticsService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	wsHub.Stop()
}

func loadReference(path string) (*taxcalc.Reference, error) {
	if path == "" {
		return taxcalc.DefaultReference()
	}
	return taxcalc.LoadReferenceFile(path)
}

// newPublisher falls back to dropping events when RabbitMQ is not configured or unreachable.
func newPublisher(cfg *config.Config, zl *zap.Logger) broker.Publisher {
	if cfg.RabbitURI == "" {
		return broker.Noop{}
	}
	p, err := broker.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitQueue)
	if err != nil {
		zl.Warn("rabbitmq unavailable, events will be dropped", zap.Error(err))
		return broker.Noop{}
	}
	return p
}
