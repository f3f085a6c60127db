package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raine/flipscan/config"
	"github.com/raine/flipscan/internal/evidence"
)

func main() {
	item := flag.String("item", "", "Item name to search for")
	category := flag.String("category", "", "Category")
	flag.Parse()

	if *item == "" {
		fmt.Fprintln(os.Stderr, "usage: test-market -item \"iPhone 13 Pro\" [-category electronics]")
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()

	sources := []evidence.Source{
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
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := make([]*evidence.Result, len(sources))
	for i, src := range sources {
		res, err := src.Fetch(ctx, *item, *category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", src.Name(), err)
			continue
		}
		results[i] = res
	}

	summary := evidence.BuildSummary(results)
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	fmt.Println()
	fmt.Println(summary.Describe())
}
