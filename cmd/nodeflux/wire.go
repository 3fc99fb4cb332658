package main

import (
	"context"
	"fmt"
	"time"

	"github.com/petrijr/nodeflux"
	"github.com/petrijr/nodeflux/internal/config"
	"github.com/petrijr/nodeflux/internal/logging"
	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes"
	"github.com/petrijr/nodeflux/pkg/nodes/broker"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
	"github.com/petrijr/nodeflux/pkg/nodes/scrape"
)

// buildDeps constructs the clients the built-in nodes call.
func buildDeps(cfg config.Config) (nodes.Deps, error) {
	fetcher, err := scrape.New(cfg.Scrape.Driver, cfg.Scrape.Timeout)
	if err != nil {
		return nodes.Deps{}, err
	}
	var gen llm.Generator = llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		BaseURL:           cfg.Gemini.BaseURL,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
	})
	if cfg.Gemini.APIKey != "" {
		gen = llm.WithRetry(gen, retryPolicy(cfg))
	}
	return nodes.Deps{
		LLM:     gen,
		Fetcher: fetcher,
		Stocks:  broker.NewDirectory(cfg.Stocks.MasterDir),
		Broker:  newBroker(cfg),
	}, nil
}

// newBroker returns the KIS virtual-trading broker unless the paper broker,
// which never sends orders, is selected.
func newBroker(cfg config.Config) broker.Broker {
	acct := broker.Account{Number: cfg.Broker.Account, Product: cfg.Broker.Product}
	if cfg.Broker.Driver == "paper" {
		return broker.NewPaperBroker(acct)
	}
	return broker.NewKISBroker(broker.KISConfig{
		AppKey:    cfg.Broker.AppKey,
		AppSecret: cfg.Broker.AppSecret,
		Account:   acct,
		BaseURL:   cfg.Broker.BaseURL,
	})
}

// retryPolicy applies to each language model call; rate limits come back
// as unavailable failures.
func retryPolicy(cfg config.Config) llm.RetryPolicy {
	return llm.Retry(cfg.Gemini.MaxAttempts).
		WithExponentialBackoff(500*time.Millisecond, 2, 8*time.Second).
		Policy()
}

// buildDispatcher wires the built-in catalogue into an engine. Every
// dispatch is logged; extra observers are appended.
func buildDispatcher(ctx context.Context, cfg config.Config, extra ...api.Observer) (api.Dispatcher, error) {
	deps, err := buildDeps(cfg)
	if err != nil {
		return nil, err
	}

	b := nodeflux.NewCatalog().
		Observe(api.NewLoggingObserver(logging.New("engine"))).
		Observe(extra...)
	b.Add(nodes.Catalog(deps)...)
	d, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build node catalogue: %w", err)
	}

	logging.New("engine").DebugContext(ctx, "node catalogue ready", "nodes", b.Len())
	return d, nil
}
