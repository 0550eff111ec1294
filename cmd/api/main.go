package main

import (
	"context"
	"log"

	"github.com/Karaton-Surakarta/masa-token-lock/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	log.Println("masa-token-lock api starting")
	app, err := bootstrap.BuildAPI(context.Background())
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("masa-token-lock api stopped with error: %v", err)
	}
}
