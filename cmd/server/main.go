package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tripflow/internal/app"
	"tripflow/internal/config"
	"tripflow/internal/ratelimit"
	"tripflow/internal/server"
	"tripflow/internal/util"
)

func main() {
	path := config.ConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:     cfg.DatabaseURL,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GenerationModel: cfg.GenerationModel,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}
	if !appCore.HasStore() {
		slog.Warn("no database configured, persistence disabled")
	}
	if !appCore.HasGenerator() {
		slog.Warn("no gemini api key configured, chat and title generation disabled")
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		limiter, err = ratelimit.NewFixedWindowLimiter(
			cfg.RedisAddr,
			cfg.RedisPassword,
			"tripflow:chat",
			cfg.ChatRateLimit,
			time.Duration(cfg.ChatRateWindowS)*time.Second,
		)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	httpServer := server.New(server.Config{
		App:     appCore,
		Limiter: limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: chat turns stream for longer than any sane
		// fixed window, and the generation client enforces its own deadline.
		IdleTimeout: 60 * time.Second,
	}

	slog.Info("tripflow server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
	}
}
