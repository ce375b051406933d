// cmd/storefront/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bookvault/internal/config"
	"bookvault/internal/events"
	"bookvault/internal/storage"
	"bookvault/internal/storefront"
	"bookvault/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, "bookvault-storefront", cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("init tracing")
	}

	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer store.Close()

	recorder := events.NewRecorder(256)
	notifier := events.Multi{events.NewLogNotifier(log), recorder}
	if cfg.Events.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, log)
		if err != nil {
			log.WithError(err).Warn("event broker unavailable, publishing disabled")
		} else {
			defer pub.Close()
			notifier = append(notifier, pub)
		}
	}

	services := storefront.NewServices(cfg, store, notifier, nil, log)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: storefront.NewRouter(services, storefront.Options{
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.AllowedOrigins,
		}, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.Storage.Driver}).Info("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Error("tracing shutdown")
	}
}
