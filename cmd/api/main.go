package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/config"
	"github.com/zhouzirui/tg-gateway/internal/handler"
	"github.com/zhouzirui/tg-gateway/internal/logging"
	"github.com/zhouzirui/tg-gateway/internal/service/account"
	"github.com/zhouzirui/tg-gateway/internal/service/auth"
	"github.com/zhouzirui/tg-gateway/internal/service/comment"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}
	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		log.Warn().Msg("TELEGRAM_API_ID / TELEGRAM_API_HASH 未配置，登录请求必须自带 api_id 与 api_hash")
	}
	if cfg.Server.InternalSecret == "" {
		log.Warn().Msg("INTERNAL_SECRET 未配置，所有接口无需密钥即可访问")
	}

	factory := telegram.NewFactory(telegram.Options{
		DefaultAPIID:   cfg.Telegram.APIID,
		DefaultAPIHash: cfg.Telegram.APIHash,
		ConnectTimeout: cfg.Telegram.ConnectTimeout,
		AppVersion:     version,
	})

	// Pending logins expire and are swept in the background.
	store := auth.NewStore(cfg.Auth.SessionTTL)
	defer store.Close()
	go store.Run(ctx, cfg.Auth.SweepInterval)

	services := handler.Services{
		Auth: auth.NewService(factory, store, cfg.Telegram.CallTimeout),
		Comment: comment.NewService(factory, comment.Options{
			HistoryLimit:  cfg.Comment.HistoryLimit,
			ReplyLimit:    cfg.Comment.ReplyLimit,
			ThreadRetries: cfg.Comment.ThreadRetries,
			CallTimeout:   cfg.Telegram.CallTimeout,
		}),
		Account: account.NewService(factory, cfg.Telegram.CallTimeout),
	}

	router := handler.NewRouter(services, handler.Options{
		InternalSecret: cfg.Server.InternalSecret,
		CORSOrigin:     cfg.Server.CORSOrigin,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Str("version", version).Msg("tg-gateway listening")
	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}
	log.Info().Msg("tg-gateway stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
