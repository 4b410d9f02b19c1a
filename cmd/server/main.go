package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"wordsync/internal/app/server/api"
	"wordsync/internal/app/server/config"
	"wordsync/internal/infrastructure/storage/postgres"
	"wordsync/internal/utils/logger"
)

func main() {
	conf := config.MustLoad()
	log := logger.NewWithOptions(conf.Env, conf.Logger.LogLevel, os.Stdout)

	if conf.Auth.Secret == config.SecretKey {
		if conf.IsProd() {
			log.Error("SECRET must be set in prod")
			os.Exit(1)
		}
		log.Warn("using default SECRET, tokens are not safe")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, conf)
	if err != nil {
		log.Error("storage init failed", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	srv := &http.Server{
		Addr:    conf.Server.RunAddress,
		Handler: api.New(storage.Pool(), conf, log),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", "address", conf.Server.RunAddress, "env", conf.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
