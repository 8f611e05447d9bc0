package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/sjperalta/studio-finance-api/docs" // Swagger docs
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/database"
	"github.com/sjperalta/studio-finance-api/internal/handlers"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
	"github.com/sjperalta/studio-finance-api/internal/middleware"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/services"
	"github.com/sjperalta/studio-finance-api/internal/storage"
	"github.com/sjperalta/studio-finance-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Studio Finance API
// @version 1.0
// @description Income and expense ledgers, receipts and financial reports for the studio back office
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if !cfg.EmailEnabled() {
		logger.Warn("Monthly summary email disabled: RESEND_API_KEY, FROM_EMAIL or REPORT_RECIPIENTS not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(db, cfg.Environment == "development"); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("Database migrated")
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage", "path", cfg.StoragePath)

	counter, closeCounter, err := newSequenceCounter(cfg, db)
	if err != nil {
		logger.Error("Failed to initialize receipt sequence", "error", err)
		os.Exit(1)
	}
	defer closeCounter()

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(services.Dependencies{
		Repos:    repository.NewRepositories(db),
		UoW:      repository.NewUnitOfWork(db),
		Counter:  counter,
		Renderer: services.NewWkhtmlRenderer(),
		Worker:   worker,
		Storage:  store,
		Config:   cfg,
		Clock:    clock.NewReal(cfg.Location),
	})

	svcs.Job.Start()
	logger.Info("Scheduled recurring jobs")

	h := handlers.NewHandlers(svcs, cfg.Location)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "timezone", cfg.BusinessTimezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// drains pending receipt-file deletions
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// newSequenceCounter picks the receipt counter backend
func newSequenceCounter(cfg *config.Config, db *gorm.DB) (repository.SequenceCounter, func(), error) {
	if cfg.ReceiptSequence != config.SequenceBackendRedis {
		return repository.NewPostgresSequence(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("Receipt sequence backed by Redis", "addr", cfg.RedisAddr)
	return repository.NewRedisSequence(client), func() { _ = client.Close() }, nil
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		protected.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff))
		{
			finance := protected.Group("/finance")
			{
				finance.GET("/incomes", h.Income.Index)
				finance.POST("/incomes", h.Income.Create)
				finance.POST("/incomes/from_order/:order_id", h.Income.FromOrder)
				finance.GET("/incomes/:id", h.Income.Show)
				finance.PUT("/incomes/:id", h.Income.Update)
				finance.POST("/incomes/:id/confirm", h.Income.Confirm)
				finance.GET("/incomes/:id/receipts", h.Receipt.ForIncome)

				finance.GET("/expenses", h.Expense.Index)
				finance.POST("/expenses", h.Expense.Create)
				finance.GET("/expenses/:id", h.Expense.Show)
				finance.PUT("/expenses/:id", h.Expense.Update)
				finance.POST("/expenses/:id/receipt", h.Expense.UploadReceipt)
				finance.GET("/expenses/:id/receipt", h.Expense.DownloadReceipt)

				finance.GET("/receipts", h.Receipt.Index)
				finance.POST("/receipts", h.Receipt.Create)
				finance.GET("/receipts/:id", h.Receipt.Show)
				finance.GET("/receipts/:id/pdf", h.Receipt.PDF)
				finance.GET("/receipt-numbers/:number", h.Receipt.ShowByNumber)

				reports := finance.Group("/reports")
				{
					reports.GET("/profit-loss", h.Report.ProfitLoss)
					reports.GET("/income-breakdown", h.Report.IncomeBreakdown)
					reports.GET("/expense-breakdown", h.Report.ExpenseBreakdown)
					reports.GET("/cash-flow", h.Report.CashFlow)
					reports.GET("/monthly-summary", h.Report.MonthlySummary)
					reports.GET("/comparison", h.Report.Comparison)
					reports.GET("/dashboard", h.Report.Dashboard)
					reports.GET("/export", h.Report.Export)
				}

				finance.GET("/summaries", h.Report.Summaries)
			}

			// Admin-only routes: removals, approvals and operations
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.DELETE("/finance/incomes/:id", h.Income.Delete)
				admin.POST("/finance/incomes/:id/cancel", h.Income.Cancel)
				admin.DELETE("/finance/expenses/:id", h.Expense.Delete)
				admin.POST("/finance/expenses/:id/approve", h.Expense.Approve)
				admin.POST("/finance/expenses/:id/reject", h.Expense.Reject)

				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
				admin.POST("/jobs/monthly_summary", h.Job.SendMonthlySummary)
			}
		}
	}

	return router
}
