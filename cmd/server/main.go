package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/supermega-io/usermemory/internal/server"
	"github.com/supermega-io/usermemory/internal/server/config"
)

func main() {

	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
