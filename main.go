package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"arenagame/client"
	"arenagame/config"
	"arenagame/server"
	"arenagame/world"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) > 1 && os.Args[1] == "server" {
		if err := server.RunFromEnv(context.Background()); err != nil {
			log.Fatal(err)
		}
		return
	}

	var (
		addr      = flag.String("addr", "", "server address, overrides config")
		name      = flag.String("name", "", "player name")
		character = flag.String("character", "assault", "character to play")
		confPath  = flag.String("config", "config.toml", "config overlay path")
	)
	flag.Parse()

	cfg := config.Default()
	if err := config.Load(cfg, *confPath); err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Net.Address = *addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	session, err := client.Dial(ctx, "ws://"+cfg.Net.Address+"/ws", world.JoinRequest{
		Name:      *name,
		Character: *character,
	})
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	ebiten.SetWindowSize(800, 600)
	ebiten.SetWindowTitle("Arena")

	if err := ebiten.RunGame(client.NewGame(cfg, session)); err != nil {
		log.Fatal(err)
	}
}
