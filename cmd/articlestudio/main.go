package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/notsoquietly/articlestudio/internal/app"
	"github.com/notsoquietly/articlestudio/internal/httpapi"
	"github.com/notsoquietly/articlestudio/internal/jobs"
	"github.com/notsoquietly/articlestudio/internal/resolve"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		sourceURL  string
		sourceType string
		serve      bool
		addr       string
		frontend   string
		outputDir  string
		enablePDF  bool
		configPath string

		llmBase  string
		llmModel string
		llmKey   string

		voice    string
		styleRef string

		strategies    string
		timeout       time.Duration
		renderTimeout time.Duration
		retryAttempts int
		minBodyChars  int
		userAgent     string
		readerBase    string
		language      string

		verbose bool
	)

	flag.StringVar(&sourceURL, "url", "", "Source URL to process (YouTube video or article)")
	flag.StringVar(&sourceType, "type", "auto", "Source type: auto, video, or article")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP API instead of one-shot processing")
	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&frontend, "frontend", "", "Static frontend directory to serve at /")
	flag.StringVar(&outputDir, "out", "articles", "Output directory for generated articles")
	flag.BoolVar(&enablePDF, "pdf", false, "Also export each article set as PDF")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file; flags take precedence")
	flag.StringVar(&llmBase, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the LLM endpoint")
	flag.StringVar(&voice, "prompt.voice", os.Getenv("PROMPT_VOICE"), "Author/newsletter description for the system prompt")
	flag.StringVar(&styleRef, "prompt.styleRef", os.Getenv("PROMPT_STYLE_REF"), "Path to a style reference text file")
	flag.StringVar(&strategies, "fetch.strategies", "", "Comma-separated fetch strategy subset (direct,retry,reader,render)")
	flag.DurationVar(&timeout, "fetch.timeout", 0, "Per-attempt fetch timeout (default 10s)")
	flag.DurationVar(&renderTimeout, "fetch.renderTimeout", 0, "Rendering strategy timeout (default 45s)")
	flag.IntVar(&retryAttempts, "fetch.retryAttempts", 0, "Retry strategy attempt cap (default 3)")
	flag.IntVar(&minBodyChars, "fetch.minBodyChars", 0, "Minimum accepted body length (default 100)")
	flag.StringVar(&userAgent, "fetch.ua", "", "Override the browser User-Agent")
	flag.StringVar(&readerBase, "fetch.readerBase", os.Getenv("READER_BASE_URL"), "Remote reader service base URL")
	flag.StringVar(&language, "lang", "en", "Caption language for video sources")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		OutputDir:     outputDir,
		PDF:           enablePDF,
		Addr:          addr,
		FrontendDir:   frontend,
		LLMBaseURL:    llmBase,
		LLMModel:      llmModel,
		LLMAPIKey:     llmKey,
		Voice:         voice,
		StyleRefPath:  styleRef,
		Timeout:       timeout,
		RenderTimeout: renderTimeout,
		RetryAttempts: retryAttempts,
		MinBodyChars:  minBodyChars,
		UserAgent:     userAgent,
		ReaderBaseURL: readerBase,
		Language:      language,
		Verbose:       verbose,
	}
	if strategies != "" {
		cfg.Strategies = strings.Split(strategies, ",")
	}
	if configPath != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config file")
		}
		fc.Merge(&cfg)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	if serve {
		runServer(a, cfg)
		return
	}

	if sourceURL == "" {
		fmt.Fprintln(os.Stderr, "usage: articlestudio -url <source URL> [flags], or articlestudio -serve")
		flag.PrintDefaults()
		os.Exit(2)
	}
	result, err := a.Run(context.Background(), sourceURL, resolve.SourceType(sourceType), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}
	log.Info().Int("articles", result.Count).Str("file", result.ArticlesFile).Msg("done")
}

func runServer(a *app.App, cfg app.Config) {
	srv := &httpapi.Server{
		Jobs:  jobs.NewStore(),
		Store: a.Store(),
		Run: func(ctx context.Context, sourceURL string, report func(string)) (any, error) {
			return a.Run(ctx, sourceURL, resolve.SourceAuto, report)
		},
		FrontendDir: cfg.FrontendDir,
	}
	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
