package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/config"
	"github.com/zhouzirui/laptop-support/internal/handler"
	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/service/chat"
	"github.com/zhouzirui/laptop-support/internal/service/support"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	client, err := support.NewClient(cfg.Support.BaseURL, support.WithLogger(logger.Named("support")))
	if err != nil {
		logger.Fatal("failed to create support client", zap.Error(err))
	}

	session := chat.NewSession(client, chat.WithLogger(logger.Named("session")))
	logger.Info("chat session started",
		zap.String("session", session.ID()),
		zap.String("endpoint", client.Endpoint()))

	router, err := handler.NewRouter(session, handler.Options{
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Logger:        logger.Named("http"),
	})
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router *handler.Router) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("laptop support chat listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	// let outstanding exchanges record their replies before exit
	router.Wait()
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
