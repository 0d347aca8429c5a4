package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/middlewares"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/sessions"
	"github.com/mmdatafocus/retail_ledger/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

const (
	sessionSweepInterval = 5 * time.Minute
	sessionMaxIdle       = 12 * time.Hour
)

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	// Production requires an explicit allowlist; elsewhere allow all.
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		cfg.AllowOrigins = config.CorsAllowedOrigins()
		if len(cfg.AllowOrigins) == 0 {
			cfg.AllowOrigins = []string{}
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	cfg.AllowCredentials = true
	return cfg
}

// readinessGate returns 503 until DB and Redis are connected.
func readinessGate(c *gin.Context) {
	if c.Request.URL.Path == "/health" {
		c.Next()
		return
	}
	if config.GetDB() == nil || config.GetRedisDB() == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.Next()
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// /api is served by a second engine built once the database is up.
	var apiEngine atomic.Pointer[gin.Engine]

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(readinessGate)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(cors.New(corsConfig()))

	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if n, err := strconv.ParseInt(os.Getenv("RATE_LIMIT_MAX_REQUESTS"), 10, 64); err == nil && n > 0 {
			limit = n
		}
		window := 60 * time.Second
		if n, err := strconv.ParseInt(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10, 64); err == nil && n > 0 {
			window = time.Duration(n) * time.Second
		}
		r.Use(func(c *gin.Context) {
			NewRateLimiter(config.GetRedisDB(), limit, window).RateLimitMiddleware(c)
		})
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	r.POST("/pubsub/invoice-posted", invoicePostedPushHandler())
	r.Any("/api/*path", func(c *gin.Context) {
		api := apiEngine.Load()
		if api == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		api.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	})
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can block tables; production runs it as a separate job.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	store := models.NewInvoiceStore(db)
	if config.PublishInvoiceEvents() {
		store.OnCommitted = workflow.PublishOnCommit(logger, config.PublishInvoicePosted)
	}
	registry := sessions.NewRegistry(store, logger)
	apiEngine.Store(newAPIEngine(logger, store, registry))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go registry.RunSweeper(workerCtx, sessionSweepInterval, sessionMaxIdle)
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RUN_SUMMARY_WORKER")), "true") {
		if err := workflow.RunDailySummaryWorker(workerCtx); err != nil {
			config.LogError(logger, "server.go", "main", "starting daily summary worker", nil, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func newAPIEngine(logger *logrus.Logger, store *models.InvoiceStore, registry *sessions.Registry) *gin.Engine {
	e := gin.New()
	e.Use(customErrorLogger(logger))
	e.Use(gin.Recovery())
	api := e.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	api.Use(middlewares.LoaderMiddleware())
	sessions.NewHandler(registry, store, logger).Register(api)
	registerMasterDataRoutes(api, store)
	registerReportRoutes(api, store)
	e.NoRoute(customNotFoundHandler)
	return e
}

// customErrorLogger logs handler errors attached with c.Error.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
