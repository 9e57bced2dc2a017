// Package app wires the resolver, generator, and store into the end-to-end
// pipeline: source URL -> source text -> article drafts -> persisted files.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/notsoquietly/articlestudio/internal/fetch"
	"github.com/notsoquietly/articlestudio/internal/generate"
	"github.com/notsoquietly/articlestudio/internal/resolve"
	"github.com/notsoquietly/articlestudio/internal/store"
	"github.com/notsoquietly/articlestudio/internal/transcript"
)

// App is the assembled pipeline.
type App struct {
	cfg       Config
	resolver  *resolve.Resolver
	generator *generate.Generator
	store     *store.Store
}

// New assembles the pipeline from cfg.
func New(cfg Config) (*App, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "articles"
	}

	chain := fetch.NewChain(fetch.Config{
		Strategies:    cfg.Strategies,
		Timeout:       cfg.Timeout,
		RenderTimeout: cfg.RenderTimeout,
		RetryAttempts: cfg.RetryAttempts,
		MinBodyChars:  cfg.MinBodyChars,
		UserAgent:     cfg.UserAgent,
		ReaderBaseURL: cfg.ReaderBaseURL,
	})
	resolver := &resolve.Resolver{
		Documents:   chain,
		Transcripts: &transcript.Client{Language: cfg.Language, UserAgent: cfg.UserAgent},
	}

	style := ""
	if cfg.StyleRefPath != "" {
		b, err := os.ReadFile(cfg.StyleRefPath)
		if err != nil {
			return nil, fmt.Errorf("read style reference: %w", err)
		}
		style = string(b)
	}
	gen := &generate.Generator{
		Client:         generate.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey),
		Model:          cfg.LLMModel,
		Voice:          cfg.Voice,
		StyleReference: style,
	}

	return &App{
		cfg:       cfg,
		resolver:  resolver,
		generator: gen,
		store:     &store.Store{Dir: cfg.OutputDir},
	}, nil
}

// Run processes one source URL end to end. report receives human-readable
// progress lines; pass nil when nobody is watching.
func (a *App) Run(ctx context.Context, sourceURL string, hint resolve.SourceType, report func(string)) (*store.SaveResult, error) {
	say := func(msg string) {
		if report != nil {
			report(msg)
		}
		log.Info().Msg(msg)
	}

	say("Fetching source content: " + sourceURL)
	content, err := a.resolver.Resolve(ctx, resolve.Request{URL: sourceURL, Type: hint})
	if err != nil {
		var exhausted *fetch.ExhaustedError
		if errors.As(err, &exhausted) {
			say("All fetch strategies failed:")
			for _, line := range strings.Split(exhausted.Trail(), "\n") {
				say("  " + line)
			}
		}
		return nil, fmt.Errorf("resolve %s: %w", sourceURL, err)
	}
	say(fmt.Sprintf("Got %q via %s (%d chars)", content.Title, content.Strategy, len(content.Body)))

	say("Generating article drafts...")
	articles, err := a.generator.Generate(ctx, content.Title, content.Body)
	if err != nil {
		return nil, fmt.Errorf("generate for %s: %w", sourceURL, err)
	}
	say(fmt.Sprintf("Parsed %d drafts", len(articles)))

	result, err := a.store.Save(store.Source{
		Title: content.Title,
		URL:   sourceURL,
		Type:  string(content.Type),
	}, articles)
	if err != nil {
		return nil, fmt.Errorf("save for %s: %w", sourceURL, err)
	}
	say("Saved " + result.ArticlesFile)

	if a.cfg.PDF {
		pdfPath := strings.TrimSuffix(result.ArticlesFile, filepath.Ext(result.ArticlesFile)) + ".pdf"
		if err := store.WritePDF(articles, pdfPath); err != nil {
			log.Warn().Err(err).Msg("PDF export failed; text output kept")
		} else {
			say("Saved " + pdfPath)
		}
	}
	return result, nil
}

// Store exposes the persistence layer to the HTTP API.
func (a *App) Store() *store.Store { return a.store }
