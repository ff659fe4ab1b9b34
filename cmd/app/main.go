package main

import (
	"context"
	"flag"
	"log"
	"os"

	"FinEnrich/internal/di"
	"FinEnrich/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s output=%s", cfg.Environment, cfg.Source.Path, cfg.Output.CSVPath)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	if *once {
		sum, err := app.RunOnce(context.Background())
		if err != nil {
			log.Printf("run failed: %v", err)
			cleanup()
			os.Exit(1)
		}
		log.Printf("run %s %s: %d records", sum.ID, sum.Status, sum.Enriched)
		return
	}

	// Run application (blocks until signal)
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
