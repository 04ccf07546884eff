package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/handlers"
	"bitbucket.org/mmdatafocus/quotes_backend/middlewares"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"bitbucket.org/mmdatafocus/quotes_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

const (
	sequenceLockTTL  = 5 * time.Second
	sequenceLockWait = 3 * time.Second
)

// routerSwitch serves the bootstrap router until the app router is installed.
type routerSwitch struct {
	current atomic.Pointer[gin.Engine]
}

func (s *routerSwitch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.current.Load().ServeHTTP(w, r)
}

// newRouter builds the middleware chain. With a nil app only the probes are
// mounted and every other path answers 503 from the readiness gate.
func newRouter(logger *logrus.Logger, app *handlers.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(middlewares.Readiness(middlewares.DatabaseReady))
	r.Use(middlewares.Cors())
	if rl := middlewares.RateLimiterFromEnv(config.GetRedisDB()); rl != nil {
		r.Use(rl.Middleware())
	}
	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", handlers.HealthzHandler)
	if app != nil {
		app.Register(r)
	} else {
		r.GET("/status", handlers.StatusHandler())
	}
	r.NoRoute(handlers.NotFoundHandler)
	return r
}

func buildHandlers(logger *logrus.Logger) *handlers.Handlers {
	store := models.NewGormStore(config.GetDB())
	opts := workflow.Options{Logger: logger}
	if config.SequenceLockEnabled() {
		if locker := utils.NewRedisLocker(sequenceLockTTL, sequenceLockWait); locker != nil {
			opts.Locker = locker
		} else {
			logger.WithFields(logrus.Fields{"field": "sequence"}).Warn("SEQUENCE_LOCK_ENABLED=true but redis is not connected; codes are allocated without a lock")
		}
	}
	return handlers.New(store,
		workflow.NewQuotationWorkflow(store, opts),
		workflow.NewOrderWorkflow(store, opts),
		workflow.NewConsultationWorkflow(store, opts),
		logger)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Listen before connecting so probes see the port; app routes answer 503 until ready.
	routes := &routerSwitch{}
	routes.current.Store(newRouter(logger, nil))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	} else {
		logger.WithFields(logrus.Fields{"field": "redis"}).Info("REDIS_ADDRESS not set; running without cache, locks or rate limiting")
	}

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate runs DDL; production can skip it and run `quotes-admin migrate` instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	routes.current.Store(newRouter(logger, buildHandlers(logger)))
	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
