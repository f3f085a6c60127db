package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/raine/flipscan/config"
	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/pipeline"
	"github.com/raine/flipscan/internal/provider"
	"github.com/raine/flipscan/internal/storage"
)

func main() {
	hint := flag.String("hint", "", "Item name hint, used when identification fails")
	category := flag.String("category", "", "Category hint")
	condition := flag.String("condition", "", "Item condition (new, like new, good, fair, poor)")
	notes := flag.String("notes", "", "Free-text context for the valuation")
	rawJSON := flag.Bool("json", false, "Output the raw PipelineResult as JSON")
	noValidation := flag.Bool("no-validation", false, "Skip the validate stage")
	noBenchmarks := flag.Bool("no-benchmarks", false, "Skip benchmark recording")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: flipscan [flags] image.jpg [image2.jpg ...]")
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()

	images := make([]provider.Image, 0, flag.NArg())
	for _, path := range flag.Args() {
		img, err := provider.ImageFromFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		images = append(images, img)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, store, err := buildPipeline(ctx, cfg, *noValidation, *noBenchmarks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	result := p.Run(ctx, images, pipeline.Options{
		ItemNameHint: *hint,
		CategoryHint: *category,
		Condition:    *condition,
		Context:      *notes,
	})

	if *rawJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}
	printResult(result)
}

func buildPipeline(ctx context.Context, cfg config.Config, noValidation, noBenchmarks bool) (*pipeline.Pipeline, *storage.BenchmarkStore, error) {
	gemini, err := provider.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	geminiLite, err := provider.NewGeminiLite(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	openai := provider.NewOpenAI(cfg.OpenAIAPIKey)
	claude := provider.NewAnthropic(cfg.AnthropicAPIKey)
	claudeHaiku := provider.NewAnthropicFast(cfg.AnthropicAPIKey)

	retry := provider.DefaultRetryConfig()
	harden := func(a provider.Analyzer) provider.Analyzer {
		return provider.WithResilience(a, retry, 2)
	}

	var validator provider.Analyzer
	switch {
	case geminiLite.Status().HasCredential:
		validator = harden(geminiLite)
	case claudeHaiku.Status().HasCredential:
		validator = harden(claudeHaiku)
	}

	var store *storage.BenchmarkStore
	var recorder pipeline.Recorder
	if !noBenchmarks {
		store, err = storage.NewBenchmarkStore(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open benchmark store: %w", err)
		}
		recorder = store
	}

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.EnableValidation = !noValidation
	pipelineCfg.EnableBenchmarks = !noBenchmarks

	p := pipeline.New(pipeline.Opts{
		Vision:    []provider.Analyzer{harden(gemini), harden(openai), harden(claude)},
		Reasoners: []provider.Analyzer{harden(gemini), harden(openai), harden(claude)},
		Validator: validator,
		Sources: []evidence.Source{
			evidence.NewMarketplace(evidence.MarketplaceOpts{
				BaseURL:      cfg.MarketBaseURL,
				ClientID:     cfg.MarketClientID,
				ClientSecret: cfg.MarketClientSecret,
			}),
			evidence.NewAuthority(evidence.AuthorityOpts{Endpoints: cfg.AuthorityEndpoints}),
			evidence.NewWebSearch(evidence.WebSearchOpts{
				BaseURL: cfg.WebSearchBaseURL,
				APIKey:  cfg.WebSearchAPIKey,
			}),
		},
		Recorder: recorder,
		Config:   pipelineCfg,
	})

	return p, store, nil
}

func printResult(r *pipeline.PipelineResult) {
	fmt.Printf("Item:       %s", r.Identification.ItemName)
	if r.Identification.Fallback {
		fmt.Print(" (identification failed, using hint)")
	}
	fmt.Println()
	if r.Identification.Category != "" {
		fmt.Printf("Category:   %s\n", r.Identification.Category)
	}
	if r.Identification.Condition != "" {
		fmt.Printf("Condition:  %s\n", r.Identification.Condition)
	}
	fmt.Printf("Price:      $%.2f (%s)\n", r.FinalPrice, r.PriceMethod)
	if r.PriceHigh > 0 {
		fmt.Printf("Range:      $%.2f - $%.2f\n", r.PriceLow, r.PriceHigh)
	}
	fmt.Printf("Decision:   %s\n", r.Decision)
	fmt.Printf("Confidence: %.0f/100 (%s)\n", r.Confidence, r.Quality)
	if r.Discrepancies.Found {
		fmt.Println("Discrepancies:")
		for _, d := range r.Discrepancies.Items {
			fmt.Printf("  - %s\n", d.Message)
		}
	}
	if r.CostUSD > 0 {
		fmt.Printf("API cost:   $%.4f\n", r.CostUSD)
	}
}
