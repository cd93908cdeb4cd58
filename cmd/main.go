package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/backup"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/domains"
	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/logging"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Log)
	logger.Info("starting complaint desk backend", slog.String("store", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Store. A corrupt store is fatal; we never overwrite it with an empty list.
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(context.Background())
	if _, err := store.LoadAll(ctx); err != nil {
		if errors.Is(err, storage.ErrCorruptStore) {
			return fmt.Errorf("refusing to start: %w", err)
		}
		return fmt.Errorf("load store: %w", err)
	}

	registry, err := domains.NewRegistry(cfg.Domains.Dir)
	if err != nil {
		return fmt.Errorf("load domains: %w", err)
	}

	// 2. Services
	hub := feed.NewManagerService(logger)
	svc := complaint.NewService(store, analysis.New(cfg.Analyzer, logger), logger)
	svc.Events = hub

	h := handler.NewHandler(svc, registry, hub, logger)
	h.Checks["store"] = store.Ping

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })

	if cfg.Redis.Addr != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		bus := storage.NewEventBus(rdb, cfg.Redis.Channel)
		svc.Events = bus
		svc.Cache = storage.NewSummaryCache(rdb, cfg.Redis.CacheKey, cfg.Redis.CacheTTL)
		h.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		sub := bus.Subscribe(ctx)
		defer sub.Close()
		g.Go(func() error { return hub.Forward(ctx, sub.Channel()) })
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg.Telegram.BotToken, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		svc.Notifier = telegram.NewNotifier(bot, cfg.Telegram.ChatID, cfg.Telegram.MinPriority, logger)
		commands := telegram.NewCommandService(bot, svc, cfg.Telegram.ChatID, logger)
		g.Go(func() error { return commands.Run(ctx, bot) })
	}

	if cfg.Backup.Schedule != "" {
		sink, err := backup.NewSink(ctx, cfg.Backup)
		if err != nil {
			return fmt.Errorf("backup sink: %w", err)
		}
		if c, ok := sink.(io.Closer); ok {
			defer c.Close()
		}
		sched, err := backup.NewScheduler(cfg.Backup.Schedule, backup.NewSnapshotter(store, sink, logger), time.Minute)
		if err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
		g.Go(func() error { return sched.Run(ctx) })
	}

	// 3. HTTP
	gin.SetMode(cfg.Server.Mode)
	server := &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:        handler.NewRouter(h, cfg.CORS, cfg.Auth),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
