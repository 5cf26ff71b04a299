package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/cdc_ingest/config"
	"github.com/Gunvolt24/cdc_ingest/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// локальные переопределения окружения (в контейнере файла нет)
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// SIGINT/SIGTERM → отмена контекста → graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Bootstrap(ctx, &cfg)
	if err != nil {
		// причина уже залогирована в Bootstrap
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	cleanup()
	if runErr != nil {
		os.Exit(1)
	}
}
