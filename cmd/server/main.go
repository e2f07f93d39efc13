package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"chatbot-studio/internal/api"
	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/config"
	"chatbot-studio/internal/database"
	"chatbot-studio/internal/logger"
	"chatbot-studio/internal/observability"
	"chatbot-studio/internal/service"
	"chatbot-studio/internal/whatsapp"
	"chatbot-studio/internal/ws"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	rdb, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	sink := observability.NewErrorSink(cfg.AMQPURL, cfg.AMQPExchange)
	defer sink.Close()
	logrus.WithFields(logrus.Fields{
		"mode":   observability.SinkMode(sink),
		"reason": observability.SinkNoopReason(sink),
	}).Info("error sink ready")

	sender := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppToken, cfg.PhoneNumberID)
	if !cfg.WhatsAppEnabled() {
		logrus.Warn("WHATSAPP_TOKEN or PHONE_NUMBER_ID not set, sending content is disabled")
	}

	hub := ws.NewHub()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	router := api.NewRouter(api.Deps{
		DB:        db,
		Users:     service.NewUserService(db, auth.NewPasswords()),
		Templates: service.NewTemplateService(db, hub),
		Contents:  service.NewContentService(db, hub),
		Gate:      auth.NewGate(tokens, auth.NewRedisDenylist(rdb)),
		Hub:       hub,
		Sender:    sender,
		Sink:      sink,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
