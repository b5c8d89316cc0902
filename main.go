package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wanderlust-stays/wanderlust/internal/app"
	"github.com/wanderlust-stays/wanderlust/internal/config"
	"github.com/wanderlust-stays/wanderlust/internal/logging"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger settings come from config, so fall back to a default one.
		log, _ := logging.New("info", "text", os.Stderr)
		log.WithError(err).Fatal("invalid configuration")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log, _ = logging.New("info", "text", os.Stderr)
		log.WithError(err).Fatal("invalid logging configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, backend, err := app.OpenStore(ctx, cfg, log)
	cancel()
	if err != nil {
		// Keep serving; every request that touches the store fails on its own.
		log.WithError(err).Error("database unavailable, starting without it")
		st = store.Unavailable{Cause: err}
	}

	a, err := app.New(cfg, log, st, backend)
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}
	handler, err := a.Router()
	if err != nil {
		log.WithError(err).Fatal("failed to build router")
	}
	a.Start()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server is listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if err := a.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to close store")
	}
	log.Info("server stopped")
}
