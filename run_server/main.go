package main

import (
	"context"
	"log"

	"arenagame/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := server.RunFromEnv(context.Background()); err != nil {
		log.Fatal(err)
	}
}
