// Package main is the entry point for the pulse-api server: the durable
// task dispatch and throttling backend behind insight generation,
// notification delivery, and wearable synchronization.
package main

import (
	"log"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
