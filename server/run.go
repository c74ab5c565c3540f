package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"arenagame/config"
)

// RunFromEnv builds the server from defaults plus a .env file and an
// optional TOML overlay, then serves until SIGINT or SIGTERM.
func RunFromEnv(ctx context.Context) error {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using defaults")
	}

	cfg := config.Default()
	confPath := os.Getenv("ARENA_CONFIG")
	if confPath == "" {
		confPath = "config.toml"
	}
	if err := config.Load(cfg, confPath); err != nil {
		return err
	}
	if addr := os.Getenv("ARENA_ADDR"); addr != "" {
		cfg.Net.Address = addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return New(cfg).Run(ctx)
}
