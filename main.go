package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorbook-backend/config"
	"tutorbook-backend/routes"
	"tutorbook-backend/services"
)

func main() {
	cfg := config.Load()
	logger := config.InitLogger(cfg.Environment)
	defer logger.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Fatal("Invalid TIMEZONE", zap.String("timezone", cfg.Timezone), zap.Error(err))
		}
		time.Local = loc
	}

	if err := config.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(config.DB); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	sms := services.NewSMSNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	if sms == nil {
		logger.Warn("Twilio credentials missing, SMS reminders disabled")
	}
	email := services.NewEmailNotifier(cfg.SendgridAPIKey, cfg.BusinessName, cfg.FromEmail)
	if email == nil {
		logger.Warn("SendGrid API key missing, email reminders disabled")
	}

	reminders := services.NewReminderService(config.DB, sms, email, cfg.BusinessName,
		time.Duration(cfg.ReminderWindow)*time.Hour, logger)
	scheduler := services.NewScheduler(reminders, services.NewPackageService(config.DB, logger), logger)
	if err := scheduler.Start(cfg.ReminderSchedule, cfg.ExpirySchedule); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	r := routes.SetupRouter(cfg, reminders)
	if !cfg.IsProduction() {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
