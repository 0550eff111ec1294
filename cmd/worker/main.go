package main

import (
	"context"
	"log"

	"github.com/Karaton-Surakarta/masa-token-lock/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Drain the distributor outbox to the event bus on a fixed interval.
func main() {
	log.Println("masa-token-lock worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("masa-token-lock worker stopped with error: %v", err)
	}
}
