// cmd/chaos/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"bookvault/internal/chaos"
	"bookvault/internal/clients"
	"bookvault/internal/config"
	"bookvault/internal/telemetry"
)

// Runs the standard game day against the configured catalog service with
// faults injected between the storefront client and the network.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	timeout := flag.Duration("timeout", 2*time.Second, "per-request timeout")
	pause := flag.Duration("pause", 5*time.Second, "pause between experiments")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	transport := chaos.NewTransport(http.DefaultTransport)
	api := clients.New(clients.NewRouter(cfg.Services), nil, clients.Options{
		HTTPClient: &http.Client{Transport: transport},
		Logger:     log,
	})
	books := clients.NewCatalogClient(api)
	probe := func(ctx context.Context) error {
		_, err := books.ListBooks(ctx, 0, 1)
		return err
	}

	engine := chaos.NewEngine(transport, probe, log)
	results, err := engine.ExecuteGameDay(ctx, chaos.GameDay{
		Name:      "storefront client taxonomy",
		Scenarios: chaos.Experiments(*timeout),
		Pause:     *pause,
	})
	if err != nil {
		log.WithError(err).Error("game day interrupted")
	}

	held := 0
	for _, r := range results {
		if r.HypothesisHeld {
			held++
		}
	}
	log.WithFields(logrus.Fields{"experiments": len(results), "held": held}).Info("game day finished")
	if held != len(results) || len(results) == 0 {
		os.Exit(1)
	}
}
