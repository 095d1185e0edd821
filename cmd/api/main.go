package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/lektora/lektora/internal/app"
	"github.com/lektora/lektora/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	log.Println("Lektora is running; DB connected and bootstrapped.")
	if err := application.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("shutdown complete")
}
