// aiprobe sends one message through every configured AI provider and
// prints the replies. It reads the same environment as the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/support-ai-platform/cmd/mainconfig"
	"github.com/wolfman30/support-ai-platform/internal/ai"
	"github.com/wolfman30/support-ai-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/support-ai-platform/internal/config"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

func main() {
	message := flag.String("message", "Hi, do you have anything open tomorrow afternoon?", "customer message to send")
	prompt := flag.String("system", "You are a friendly front desk assistant. Keep responses brief and helpful.", "system prompt")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()
	logger := logging.New("warn")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		fmt.Printf("failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	registry, cleanup, err := bootstrap.BuildAIRegistry(ctx, cfg, awsCfg, logger)
	if err != nil {
		fmt.Printf("failed to configure providers: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	names := registry.Names()
	if len(names) == 0 {
		fmt.Println("No providers configured. Set OPENAI_API_KEY, GEMINI_API_KEY or BEDROCK_MODEL_ID.")
		os.Exit(1)
	}

	responder := ai.NewResponder(registry, cfg.DefaultAIProvider, logger, ai.WithTimeout(cfg.AITimeout))
	failed := 0
	for i, name := range names {
		start := time.Now()
		reply := responder.Generate(ctx, ai.Request{Message: *message, SystemPrompt: *prompt, Provider: name})
		fmt.Printf("\n[%d] %s (%v, confidence %.1f)\n    %s\n", i+1, name, time.Since(start).Round(time.Millisecond), reply.Confidence, reply.Text)
		if reply.Confidence == 0 {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
