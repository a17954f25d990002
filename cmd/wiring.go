package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/voyantic/placeintel/internal/backfill"
	"github.com/voyantic/placeintel/internal/fetcher"
	"github.com/voyantic/placeintel/internal/pipeline"
	"github.com/voyantic/placeintel/internal/source"
	"github.com/voyantic/placeintel/internal/store"
	anthropicpkg "github.com/voyantic/placeintel/pkg/anthropic"
	"github.com/voyantic/placeintel/pkg/reader"
)

const crawlerUserAgent = "placeintel/1.0"

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "placeintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func loadLexicon() (*source.Lexicon, error) {
	if cfg.Lexicon.Path == "" {
		return source.DefaultLexicon(), nil
	}
	return source.LoadLexicon(cfg.Lexicon.Path)
}

// buildAdapters wires every configured source. Sources missing their
// credentials are left out rather than failing the whole pipeline.
func buildAdapters() ([]source.Adapter, error) {
	lexicon, err := loadLexicon()
	if err != nil {
		return nil, err
	}

	readerClient := reader.NewClient(cfg.Reader.Key,
		reader.WithBaseURL(cfg.Reader.BaseURL),
		reader.WithSearchBaseURL(cfg.Reader.SearchBaseURL),
	)

	var ai anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropicpkg.NewClient(cfg.Anthropic.Key)
	}
	extractor := source.NewExtractor(ai, cfg.Anthropic.Model, lexicon)

	robots := source.NewRobotsChecker(crawlerUserAgent, 10*time.Second)
	limiter := source.NewHostLimiter(rate.Limit(1), 2)

	adapters := []source.Adapter{
		source.NewReviewsAdapter(readerClient, extractor, robots, limiter),
		source.NewMenuAdapter(&http.Client{Timeout: 30 * time.Second}, lexicon),
		source.NewSocialAdapter(readerClient, lexicon),
	}

	if len(cfg.Awards.Registries) > 0 {
		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    crawlerUserAgent,
			Timeout:      60 * time.Second,
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
		ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: 60 * time.Second})
		adapters = append(adapters, source.NewAwardsAdapter(httpFetcher, ftpFetcher, cfg.Awards.Registries, lexicon))
	}

	if cfg.Notion.Token != "" && cfg.Notion.CurationDB != "" {
		adapters = append(adapters, source.NewEditorialAdapter(
			source.NewNotionClient(cfg.Notion.Token), cfg.Notion.CurationDB))
	}

	return adapters, nil
}

func buildOrchestrator(st store.Store) (*pipeline.Orchestrator, error) {
	adapters, err := buildAdapters()
	if err != nil {
		return nil, err
	}
	return pipeline.New(st, adapters, pipeline.Config{
		SourceTimeout: cfg.Pipeline.SourceTimeout(),
		Scoring:       cfg.Scoring,
	}), nil
}

func buildBackfill(st store.Store) *backfill.Job {
	var embedder backfill.Embedder
	var embedRate *rate.Limiter
	if cfg.OpenAI.Key != "" {
		embedder = backfill.NewOpenAIEmbedder(cfg.OpenAI.Key, cfg.OpenAI.EmbeddingModel)
		if cfg.OpenAI.RatePerSecond > 0 {
			embedRate = rate.NewLimiter(rate.Limit(cfg.OpenAI.RatePerSecond), 1)
		}
	}
	return backfill.New(st, embedder, backfill.Config{
		Concurrency:            cfg.Backfill.Concurrency,
		PlaceLimit:             cfg.Backfill.PlaceLimit,
		ContradictionThreshold: cfg.Taste.ContradictionThreshold,
		EmbedRate:              embedRate,
		Decay:                  cfg.Taste.Decay,
		Match:                  cfg.Taste.Match,
	})
}
