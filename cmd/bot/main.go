package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/bot"
	"cryptocutie-bot/internal/config"
	"cryptocutie-bot/internal/database"
	"cryptocutie-bot/internal/ledger"
	"cryptocutie-bot/internal/metrics"
	"cryptocutie-bot/internal/service"
	"cryptocutie-bot/internal/session"
	"cryptocutie-bot/internal/worker"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load Configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Database
	db, err := database.ConnectPostgres(cfg, log)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not access database handle: %v", err)
	}
	defer sqlDB.Close()

	// Connect to Redis
	rdb, err := database.ConnectRedis(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}
	defer rdb.Close()

	rules := ledger.DefaultRules()
	store := ledger.NewStore(db, rules,
		ledger.WithTimeout(cfg.StoreTimeout),
		ledger.WithLogger(log.WithField("component", "ledger")),
	)
	m := metrics.New()

	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}
	b := bot.NewBot(tgBot, nil, log.WithField("component", "bot"))

	username := cfg.BotUsername
	if username == "" {
		if username, err = b.Username(ctx); err != nil {
			log.Fatalf("Could not resolve bot username: %v", err)
		}
	}

	b.Service = service.New(store, session.NewRedisStore(rdb, cfg.SessionTTL), service.Config{
		Rules:           rules,
		ReferralBaseURL: "https://t.me/" + username,
		Admins:          service.NewStaticAdmins(cfg.AdminIDs...),
		Logger:          log.WithField("component", "service"),
		Metrics:         m,
	})

	checker := worker.NewChecker(store, rdb, b, rules, cfg.NotifyInterval, log.WithField("component", "worker"), m)

	ops := &http.Server{
		Addr: cfg.MetricsAddr,
		Handler: metrics.NewRouter(m, func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		}, cfg.MetricsAllowed...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		checker.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		log.WithField("addr", cfg.MetricsAddr).Info("Ops server listening")
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err.Error()).Error("Ops server failed")
		}
	}()

	log.WithField("username", username).Info("Service started successfully")
	if err := b.Start(ctx); err != nil {
		log.WithField("error", err.Error()).Error("Bot stopped with error")
		stop()
	}

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Warn("Ops server shutdown failed")
	}
	wg.Wait()
}
