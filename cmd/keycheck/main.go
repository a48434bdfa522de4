// Command keycheck sends one tiny completion through the configured
// provider to confirm the API key works.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"flint/internal/config"
	"flint/internal/models"
	"flint/internal/services"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	completer, closeCompleter, err := services.NewCompleter(ctx, cfg)
	if err != nil {
		log.Fatalf("✗ Upstream client initialization failed: %v", err)
	}
	defer closeCompleter()

	log.Printf("Testing %s API key with model %s...", completer.Provider(), completer.Model())

	reply, err := completer.Complete(ctx, services.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "You are a test agent."},
			{Role: models.RoleUser, Content: "Say hello if the API key works."},
		},
		MaxTokens: 10,
	})
	if err != nil {
		log.Printf("✗ API test failed: %v", err)
		var upErr *services.UpstreamError
		if errors.As(err, &upErr) && upErr.Body != "" {
			log.Printf("  Response body: %s", upErr.Body)
		}
		os.Exit(1)
	}

	log.Println("✓ API test successful")
	fmt.Println(reply.Content)
}
