package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/auth"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
	"github.com/sugarcrumb/storefront-api/database"
	"github.com/sugarcrumb/storefront-api/kitchen"
	"github.com/sugarcrumb/storefront-api/lock"
	"github.com/sugarcrumb/storefront-api/logger"
	"github.com/sugarcrumb/storefront-api/mailer"
	"github.com/sugarcrumb/storefront-api/payment/paymob"
	"github.com/sugarcrumb/storefront-api/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	log.Info("Starting application...", "port", cfg.Port)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("AutoMigrate failed", "error", err)
		os.Exit(1)
	}

	var gateway checkout.Gateway
	if cfg.Paymob.Enabled() {
		gateway = paymob.New(cfg.Paymob, log)
	} else {
		log.Warn("Paymob is not configured, card payments will fail")
	}

	var mail checkout.Mailer = mailer.NewLogMailer(log)
	if cfg.SMTP.Enabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTP, log)
	}

	hub := kitchen.NewHub(log)
	dispatcher := checkout.NewDispatcher(db, gateway, mail, log)
	opts := []checkout.Option{checkout.WithNotifier(hub)}

	if cfg.RedisURL != "" {
		locker, err := lock.NewRedisLocker(cfg.RedisURL, cfg.CheckoutLockTTL, log)
		if err != nil {
			log.Error("Redis connection failed", "error", err)
			os.Exit(1)
		}
		defer locker.Close()
		opts = append(opts, checkout.WithLocker(locker))
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log))

	// Allow large spreadsheet uploads
	r.MaxMultipartMemory = 32 << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupRoutes(r, routes.Deps{
		DB:         db,
		Config:     &cfg,
		Log:        log,
		Issuer:     auth.NewIssuer(cfg.JWTSecret),
		Checkout:   checkout.NewService(db, dispatcher, log, opts...),
		Dispatcher: dispatcher,
		Kitchen:    hub,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited properly")
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
