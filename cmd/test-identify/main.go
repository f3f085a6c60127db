package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raine/flipscan/config"
	"github.com/raine/flipscan/internal/provider"
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: test-identify image.jpg [image2.jpg ...]")
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	images := make([]provider.Image, 0, flag.NArg())
	for _, path := range flag.Args() {
		img, err := provider.ImageFromFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		images = append(images, img)
	}

	gemini, err := provider.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	analyzers := []provider.Analyzer{
		gemini,
		provider.NewOpenAI(cfg.OpenAIAPIKey),
		provider.NewAnthropic(cfg.AnthropicAPIKey),
	}

	for _, a := range analyzers {
		if !a.Status().HasCredential {
			fmt.Printf("%s: no credential, skipped\n", a.Name())
			continue
		}
		res, err := a.Analyze(ctx, images, provider.IdentifyPrompt())
		if err != nil {
			fmt.Printf("%s: error: %v\n", a.Name(), err)
			continue
		}
		out, _ := json.MarshalIndent(res.Analysis, "", "  ")
		fmt.Printf("%s (%dms, $%.4f):\n%s\n", a.Name(), res.ResponseTimeMs, res.Usage.CostUSD, out)
	}
}
