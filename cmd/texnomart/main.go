package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/texnomart/internal/cache"
	"github.com/Skotchmaster/texnomart/internal/config"
	"github.com/Skotchmaster/texnomart/internal/db"
	"github.com/Skotchmaster/texnomart/internal/events"
	"github.com/Skotchmaster/texnomart/internal/httpserver"
	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/mail"
	"github.com/Skotchmaster/texnomart/internal/metrics"
	authmw "github.com/Skotchmaster/texnomart/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/texnomart/internal/middleware/logging"
	"github.com/Skotchmaster/texnomart/internal/mykafka"
	"github.com/Skotchmaster/texnomart/internal/repo"
	"github.com/Skotchmaster/texnomart/internal/search"
	"github.com/Skotchmaster/texnomart/internal/service"
	"github.com/Skotchmaster/texnomart/internal/tokens"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

const sideEffectTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	r := &repo.GormRepo{DB: gdb}
	media := transport.Media{Prefix: cfg.MediaURL}
	bus := events.NewBus()

	archiver := &events.Archiver{Dir: cfg.ArchiveDir, Media: media}
	bus.Subscribe("archiver", archiver.Handle, events.ProductDeleting, events.CategoryDeleting)

	var sender mail.Sender = mail.LogSender{}
	if cfg.SMTPHost != "" {
		config.MustNonEmpty(cfg.EmailFrom, "EMAIL_FROM")
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			log.Fatalf("smtp: %v", err)
		}
		sender = smtp
	}
	notifier := &events.Notifier{Sender: sender, Recipients: r, From: cfg.EmailFrom, OperatorEmail: cfg.NotifyOperatorEmail}
	bus.Subscribe("notifier", events.WithTimeout(notifier.Handle, sideEffectTimeout), events.ProductCreated, events.CategoryCreated)

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		publisher := &events.KafkaPublisher{Producer: producer, Topic: cfg.KafkaTopic}
		bus.Subscribe("kafka", publisher.Handle,
			events.ProductCreated, events.ProductUpdated, events.ProductDeleted,
			events.CategoryCreated, events.CategoryUpdated, events.CategoryDeleted,
		)
	}

	catalog := &service.CatalogService{Repo: r, Events: bus}
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := es.Ping(pingCtx); err != nil {
			logger.Warn("elasticsearch_unreachable", "url", cfg.ESURL, "error", err)
		}
		pingCancel()

		indexer := &events.Indexer{Index: es}
		bus.Subscribe("indexer", events.WithTimeout(indexer.Handle, sideEffectTimeout),
			events.ProductCreated, events.ProductUpdated, events.ProductDeleted,
		)
		catalog.Search = es
	}

	auth := &service.AuthService{Repo: r, Tokens: &tokens.Issuer{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{
			Svc:      catalog,
			Cache:    cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL),
			CacheTTL: cfg.CacheTTL,
			Media:    media,
		},
		AuthHandler:   &httpserver.AuthHTTP{Svc: auth},
		Auth:          authmw.New(auth, cfg.JWTSecret),
		AuthRateLimit: cfg.AuthRateLimit,
		SearchEnabled: catalog.Search != nil,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("texnomart_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("texnomart_stopped")
}
