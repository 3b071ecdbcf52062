package router

import (
	"time"

	"teranga/internal/config"
	"teranga/internal/events"
	"teranga/internal/handler"
	"teranga/internal/infra"
	"teranga/internal/metrics"
	"teranga/internal/middleware"
	"teranga/internal/repository"
	"teranga/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, bus events.Bus, alerts service.AlertQueue, breakers ...*infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	tableRepo := repository.NewTableRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	requestRepo := repository.NewIngredientRequestRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	tableSvc := service.NewTableService(tableRepo, sessionRepo, cfg.PublicBaseURL)
	menuCache := service.NewRedisMenuCache(rdb, time.Duration(cfg.MenuCacheTTLMinutes)*time.Minute)
	menuSvc := service.NewMenuService(tx, menuRepo, ingredientRepo, menuCache)
	stockSvc := service.NewStockService(tx, ingredientRepo, movementRepo, requestRepo, menuRepo, alerts)
	orderSvc := service.NewOrderService(tx, orderRepo, menuRepo, tableRepo, sessionRepo, stockSvc, bus)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	tablesH := handler.NewTablesHandler(tableSvc)
	publicH := handler.NewPublicHandler(tableSvc, orderSvc, menuSvc)
	menuH := handler.NewMenuHandler(menuSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	kitchenH := handler.NewKitchenHandler(orderSvc, bus)
	stockH := handler.NewStockHandler(stockSvc)
	adminH := handler.NewAdminHandler(rdb)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.Use(middleware.Authenticate(authSvc))

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, breakers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.GET("/me", middleware.RequireAuth(), authH.Me)
	}

	// Diners: the QR and session tokens are the credentials
	public := r.Group("/v1/public")
	{
		public.GET("/menu", publicH.Menu)
		public.POST("/tables/:token/session", middleware.ScanRateLimiter(30), publicH.Scan)
		public.GET("/sessions/:token", publicH.Session)
		public.GET("/sessions/:token/orders", publicH.SessionOrders)
		public.POST("/sessions/:token/orders", middleware.ScanRateLimiter(30), publicH.PlaceOrder)
	}

	// Staff: the services check the permission of every operation
	v1 := r.Group("/v1", middleware.RequireAuth())
	{
		users := v1.Group("/users")
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		tables := v1.Group("/tables")
		{
			tables.POST("", tablesH.Create)
			tables.GET("", tablesH.List)
			tables.GET("/:id", tablesH.Get)
			tables.PUT("/:id", tablesH.Update)
			tables.DELETE("/:id", tablesH.Deactivate)
			tables.POST("/:id/reset", tablesH.Reset)
		}
		v1.POST("/sessions/:id/close", tablesH.CloseSession)

		menu := v1.Group("/menu")
		{
			menu.GET("/categories", menuH.ListCategories)
			menu.POST("/categories", menuH.CreateCategory)
			menu.PUT("/categories/:id", menuH.UpdateCategory)
			menu.GET("/items", menuH.ListItems)
			menu.POST("/items", menuH.CreateItem)
			menu.GET("/items/:id", menuH.GetItem)
			menu.PUT("/items/:id", menuH.UpdateItem)
			menu.GET("/items/:id/recipe", menuH.GetRecipe)
			menu.PUT("/items/:id/recipe", menuH.SetRecipe)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id/status", ordersH.UpdateStatus)
			orders.POST("/:id/payment", ordersH.ValidatePayment)
			orders.GET("/:id/history", ordersH.History)
		}

		kitchen := v1.Group("/kitchen")
		{
			kitchen.GET("/board", kitchenH.Board)
			kitchen.GET("/stream", kitchenH.Stream)
		}

		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("", stockH.CreateIngredient)
			ingredients.GET("", stockH.ListIngredients)
			ingredients.GET("/low-stock", stockH.LowStock)
			ingredients.GET("/:id", stockH.GetIngredient)
			ingredients.PUT("/:id", stockH.UpdateIngredient)
			ingredients.POST("/:id/adjust", stockH.Adjust)
			ingredients.GET("/:id/reconcile", stockH.Reconcile)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("/movements", stockH.Movements)
			stock.POST("/requests", stockH.CreateRequest)
			stock.GET("/requests", stockH.ListRequests)
			stock.POST("/requests/:id/approve", stockH.ApproveRequest)
			stock.POST("/requests/:id/reject", stockH.RejectRequest)
			stock.POST("/requests/:id/fulfill", stockH.FulfillRequest)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/jobs/dlq", adminH.DeadLetters)
			admin.POST("/jobs/dlq/requeue", adminH.RequeueDeadLetters)
		}
	}

	// Swagger UI: only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
