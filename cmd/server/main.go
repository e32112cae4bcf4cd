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

	"streaksync/internal/config"
	"streaksync/internal/db"
	"streaksync/internal/logger"
	"streaksync/internal/realtime"
	"streaksync/internal/router"
	"streaksync/internal/services"
	"streaksync/internal/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.LogFile, cfg.SentryDSN)
	defer sentry.Flush(2 * time.Second)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Database
	conn, err := db.Init(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedCache := newFeedCache(ctx, cfg)
	if closer, ok := feedCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	hub := realtime.NewHub()
	profiles := services.NewProfileService(conn, hub)
	goals := services.NewGoalService(conn, hub)
	feed := services.NewFeedService(conn, hub, feedCache, cfg.FeedCacheTTL)
	challenges := services.NewChallengeService(conn, hub)
	llm := services.NewLLMService(cfg.LLMBaseURL, cfg.LLMToken, cfg.LLMModel, cfg.LLMTimeout)
	if !llm.Enabled() {
		slog.Warn("LLM_TOKEN not set, generated text falls back to fixed lines")
	}

	// 换日任务默认关闭
	if cfg.DailyResetEnabled {
		goals.StartDailyRollover(ctx, cfg.DailyResetHour)
		slog.Info("daily rollover scheduled", "hour", cfg.DailyResetHour)
	}

	r := router.New(router.Deps{
		Config:     cfg,
		DB:         conn,
		Hub:        hub,
		Profiles:   profiles,
		Goals:      goals,
		Feed:       feed,
		Challenges: challenges,
		LLM:        llm,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("streaksync server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// newFeedCache prefers Redis when REDIS_ADDR is set and falls back to the
// in-process LRU.
func newFeedCache(ctx context.Context, cfg *config.Config) utils.Cache {
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := utils.NewRedisCache(pingCtx, cfg.RedisAddr)
		if err == nil {
			slog.Info("feed cache backed by redis", "addr", cfg.RedisAddr)
			return rc
		}
		slog.Warn("redis unavailable, using local cache", "error", err)
	}
	lc, err := utils.NewLocalCache(128)
	if err != nil {
		slog.Error("local cache init failed", "error", err)
		os.Exit(1)
	}
	return lc
}
