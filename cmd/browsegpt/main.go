package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"browsegpt/internal/di"
	"browsegpt/internal/infrastructure/env"
)

func main() {
	os.Exit(run())
}

func run() int {
	envService := env.NewEnvService()

	cfg, err := env.LoadConfig(envService)
	if err != nil {
		log.Printf("configuration error: %v", err)
		return 1
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		log.Printf("initialization error: %v", err)
		return 1
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Logger.Info("Service starting",
		"env", envService.AppEnv(),
		"envFiles", envService.LoadedFiles(),
		"model", cfg.OpenAIModel,
		"maxSteps", cfg.MaxSteps)

	if err := container.Server.Run(ctx); err != nil {
		container.Logger.Error("Server stopped", "error", err)
		return 1
	}
	container.Logger.Info("Service stopped")
	return 0
}
