package main

import (
	"os"

	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/logger"
	"backend/internal/middleware"
	"backend/internal/notifier"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Consignment Ledger API
// @version         1.0
// @description     Consignment, sale and invoice ledger for stone-slab inventory consigned to dealers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("no configs/.env file found")
	}

	logger.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", dbHost).Str("database", dbName).Msg("connected to postgres")

	// WebSocket hub for dashboard notifications
	wsHub := websocket.NewHub()
	go wsHub.Run()
	dispatcher := notifier.NewHubDispatcher(wsHub)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	orgRepo := repository.NewOrganizationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	lotRepo := repository.NewLotRepository(db)
	consignmentRepo := repository.NewConsignmentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	orgService := service.NewOrganizationService(orgRepo, consignmentRepo, auditRepo, txManager)
	catalogService := service.NewCatalogService(catalogRepo, auditRepo, txManager)
	lotService := service.NewLotService(lotRepo, auditRepo, txManager)
	consignmentService := service.NewConsignmentService(consignmentRepo, orgRepo, catalogRepo, auditRepo, txManager)
	saleService := service.NewSaleService(saleRepo, consignmentRepo, auditRepo, txManager, dispatcher)
	invoiceService := service.NewInvoiceService(invoiceRepo, saleRepo, consignmentRepo, auditRepo, txManager, dispatcher)
	analyticsService := service.NewAnalyticsService(analyticsRepo)
	userService := service.NewUserService(userRepo)

	// Handlers
	orgHandler := handler.NewOrganizationHandler(orgService)
	catalogHandler := handler.NewCatalogHandler(catalogService, lotService)
	consignmentHandler := handler.NewConsignmentHandler(consignmentService)
	saleHandler := handler.NewSaleHandler(saleService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route; spec is generated with swag init
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	userHandler.RegisterRoutes(router.Group(""))
	orgHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	consignmentHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	analyticsHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
