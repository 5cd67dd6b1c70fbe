// catalog-twin is a behavioral twin of the remote products service. It serves
// the products API and the /admin control plane on one port.
//
// Default port: 3000 (or $PORT)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/travelexperts/catalog/internal/twin"
)

func main() {
	cfg, err := twin.ParseFlags("catalog-twin", os.Args[1:])
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	srv := twin.New(cfg)

	if cfg.SeedFile != "" {
		if err := srv.LoadSeedFile(cfg.SeedFile); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
	}

	srv.Logger.Info("catalog-twin ready",
		"port", cfg.Port,
		"latency", cfg.Latency,
		"fail_rate", cfg.FailRate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
