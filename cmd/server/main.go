package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/finpulse/finpulse/internal/auth"
	"github.com/finpulse/finpulse/internal/bankdata"
	"github.com/finpulse/finpulse/internal/classifier"
	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/handler"
	"github.com/finpulse/finpulse/internal/mail"
	"github.com/finpulse/finpulse/internal/service"
	"github.com/finpulse/finpulse/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	var st store.Store
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.WithError(err).Fatal("failed to open database")
		}
		if err := db.Ping(); err != nil {
			logger.WithError(err).Fatal("failed to reach database")
		}
		defer db.Close()
		st = store.NewPostgresStore(db)
		logger.Info("using postgres store")
	default:
		st = store.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	svc := service.NewFinanceService(st, classifier.NewRuleBased(), bankdata.NewSandbox(), logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	router := mux.NewRouter()
	handler.NewHandler(svc, tokens, logger).RegisterRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h2c.NewHandler(c.Handler(router), &http2.Server{}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Weekly risk digest, only when SMTP is configured.
	var scheduler *cron.Cron
	if cfg.MailEnabled() {
		scheduler = cron.New()
		digest := service.NewDigestJob(svc, mail.NewSMTPSender(cfg, logger), logger)
		if _, err := scheduler.AddFunc(cfg.DigestSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			digest.Run(ctx)
		}); err != nil {
			logger.WithError(err).Fatal("invalid digest schedule")
		}
		scheduler.Start()
		logger.WithField("schedule", cfg.DigestSchedule).Info("risk digest scheduled")
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}
