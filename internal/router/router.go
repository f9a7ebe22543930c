package router

import (
	"time"

	"recantoverde/internal/config"
	"recantoverde/internal/handler"
	"recantoverde/internal/middleware"
	"recantoverde/internal/repository"
	"recantoverde/internal/service"
	"recantoverde/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	tableRepo := repository.NewTableRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	caixaRepo := repository.NewCaixaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that broadcast state changes
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(userRepo, cfg)
	menuSvc := service.NewMenuService(menuRepo)
	tableSvc := service.NewTableService(tableRepo, orderRepo, dispatcher)
	orderSvc := service.NewOrderService(orderRepo, tableRepo, menuRepo, dispatcher)
	caixaSvc := service.NewCaixaService(caixaRepo, dispatcher)
	paymentSvc := service.NewPaymentService(orderRepo, tableRepo, caixaSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	menuH := handler.NewMenuHandler(menuSvc)
	tablesH := handler.NewTablesHandler(tableSvc, orderSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	caixaH := handler.NewCaixaHandler(caixaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: garcom, gerente, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("garcom", "gerente", "admin")
		managers := middleware.RequireRole("gerente", "admin")
		adminOnly := middleware.RequireRole("admin")

		v1.GET("/tables", anyStaff, tablesH.List)
		v1.GET("/tables/:id", anyStaff, tablesH.Get)
		v1.GET("/tables/:id/orders", anyStaff, tablesH.Orders)
		v1.POST("/tables/:id/occupy", anyStaff, tablesH.Occupy)
		v1.POST("/tables/:id/clients", anyStaff, tablesH.AddClients)
		v1.POST("/tables/:id/release", anyStaff, tablesH.Release)
		v1.POST("/tables", managers, tablesH.Create)

		v1.POST("/orders", anyStaff, ordersH.Create)
		v1.GET("/orders", anyStaff, ordersH.List)
		v1.GET("/orders/:id", anyStaff, ordersH.Get)
		v1.PATCH("/orders/:id/status", anyStaff, ordersH.Transition)

		payments := v1.Group("/payments", anyStaff)
		{
			payments.POST("/full", paymentsH.PayFull)
			payments.POST("/split", paymentsH.PaySplit)
			payments.POST("/split/preview", paymentsH.PreviewSplit)
		}

		caixa := v1.Group("/caixa", managers)
		{
			caixa.POST("/open", caixaH.Open)
			caixa.POST("/close", caixaH.Close)
			caixa.POST("/sangria", caixaH.Sangria)
			caixa.POST("/reforco", caixaH.Reforco)
			caixa.GET("/current", caixaH.Current)
			caixa.GET("/:id/report", caixaH.Report)
			caixa.GET("/history", caixaH.History)
			caixa.GET("/summary", caixaH.Summary)
		}

		// Menu — managers can write, all authenticated staff can read
		v1.GET("/menu", anyStaff, menuH.List)
		v1.GET("/menu/:id", anyStaff, menuH.Get)
		menu := v1.Group("/menu", managers)
		{
			menu.POST("", menuH.Create)
			menu.PUT("/:id", menuH.Update)
			menu.DELETE("/:id", menuH.Deactivate)
			menu.PATCH("/:id/reactivate", menuH.Reactivate)
		}

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
