package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notsoquietly/articlestudio/internal/extract"
)

// Config holds the chain's knobs. The zero value is usable; unset fields get
// the defaults below. A Config is treated as immutable once the chain is
// built.
type Config struct {
	// Strategies is the ordered subset of strategies to run. Empty means
	// DefaultOrder.
	Strategies []string
	// Timeout bounds each non-rendering strategy attempt.
	Timeout time.Duration
	// RenderTimeout bounds the rendering strategy, which needs a larger
	// allotment than header-only fetches.
	RenderTimeout time.Duration
	// RetryAttempts is the retry strategy's total attempt cap.
	RetryAttempts int
	// BackoffBase is the retry strategy's backoff base; the delay before
	// attempt two is twice this, doubling after.
	BackoffBase time.Duration
	// MinBodyChars is the acceptance gate: extracted bodies under this are
	// EmptyContent and trigger the next strategy.
	MinBodyChars int

	UserAgent     string
	ReaderBaseURL string

	// HTTPClient, when set, is used by the HTTP strategies. Nil means a
	// plain client (per-attempt contexts do the timing out).
	HTTPClient *http.Client
	// Renderer, when set, replaces the default ChromeRenderer.
	Renderer Renderer
}

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRenderTimeout = 45 * time.Second
	DefaultRetryAttempts = 3
	DefaultBackoffBase   = time.Second
	DefaultMinBodyChars  = 100
)

func (c Config) withDefaults() Config {
	if len(c.Strategies) == 0 {
		c.Strategies = DefaultOrder
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = DefaultRenderTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.MinBodyChars <= 0 {
		c.MinBodyChars = DefaultMinBodyChars
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Renderer == nil {
		c.Renderer = &ChromeRenderer{UserAgent: c.UserAgent}
	}
	return c
}

// Document is the chain's accepted result: usable article text plus the
// identity of the strategy that produced it.
type Document struct {
	Title     string
	Body      string
	Strategy  string
	CharCount int
}

// Outcome pairs the accepted document (nil when every strategy failed) with
// the complete diagnostic trail, which is kept even on success.
type Outcome struct {
	Doc      *Document
	Attempts []Attempt
}

// Chain tries its strategies strictly in order and stops at the first one
// that yields an accepted document. Strategies are independent mechanisms;
// the chain never re-runs an earlier one.
type Chain struct {
	cfg        Config
	strategies []Strategy
}

// NewChain builds the chain from cfg. Unknown strategy names are ignored.
func NewChain(cfg Config) *Chain {
	cfg = cfg.withDefaults()
	c := &Chain{cfg: cfg}
	for _, name := range cfg.Strategies {
		switch name {
		case StrategyDirect:
			c.strategies = append(c.strategies, &directStrategy{client: cfg.HTTPClient, userAgent: cfg.UserAgent})
		case StrategyRetry:
			c.strategies = append(c.strategies, &retryStrategy{
				client:      cfg.HTTPClient,
				userAgent:   cfg.UserAgent,
				maxAttempts: cfg.RetryAttempts,
				base:        cfg.BackoffBase,
			})
		case StrategyReader:
			c.strategies = append(c.strategies, &readerStrategy{client: cfg.HTTPClient, baseURL: cfg.ReaderBaseURL, userAgent: cfg.UserAgent})
		case StrategyRender:
			c.strategies = append(c.strategies, &renderStrategy{renderer: cfg.Renderer})
		}
	}
	return c
}

// Fetch runs the chain for one URL. On success the returned Outcome carries
// the document and every attempt made on the way there; on exhaustion the
// error is an *ExhaustedError holding the same trail.
func (c *Chain) Fetch(ctx context.Context, url string) (Outcome, error) {
	var trail []Attempt
	for _, s := range c.strategies {
		sctx, cancel := context.WithTimeout(ctx, c.budget(s))
		payload, attempts, err := s.Fetch(sctx, url)
		cancel()

		if err == nil {
			doc, gateErr := c.accept(payload, s.Name(), url)
			if gateErr != nil {
				// Got a page, but it is useless. Same as a fetch failure.
				n := len(attempts) - 1
				attempts[n].Err = gateErr
				attempts[n].Class = Classify(gateErr)
				err = gateErr
			} else {
				trail = appendAttempts(trail, attempts)
				log.Debug().Str("strategy", s.Name()).Int("chars", doc.CharCount).Msg("fetch succeeded")
				return Outcome{Doc: doc, Attempts: trail}, nil
			}
		}
		trail = appendAttempts(trail, attempts)
		log.Debug().Str("strategy", s.Name()).Str("kind", kind(err)).Msg("strategy failed; escalating")

		if ctx.Err() != nil {
			break
		}
	}
	exhausted := &ExhaustedError{Attempts: trail}
	return Outcome{Attempts: trail}, exhausted
}

// accept applies extraction (unless the strategy pre-extracted) and the
// minimum-length gate.
func (c *Chain) accept(p *Payload, strategy, url string) (*Document, error) {
	var title, body string
	if p.preExtracted() {
		title, body = p.Title, p.Body
	} else {
		d := extract.FromHTML(p.HTML, url)
		title, body = d.Title, d.Body
	}
	if len(body) < c.cfg.MinBodyChars {
		return nil, ErrEmptyContent
	}
	return &Document{Title: title, Body: body, Strategy: strategy, CharCount: len(body)}, nil
}

func (c *Chain) budget(s Strategy) time.Duration {
	switch s.Name() {
	case StrategyRender:
		return c.cfg.RenderTimeout
	case StrategyRetry:
		// All attempts plus the 2x+4x backoff sleeps must fit.
		return time.Duration(c.cfg.RetryAttempts)*c.cfg.Timeout + 6*c.cfg.BackoffBase
	default:
		return c.cfg.Timeout
	}
}

func appendAttempts(trail, attempts []Attempt) []Attempt {
	for _, a := range attempts {
		a.Ordinal = len(trail) + 1
		trail = append(trail, a)
	}
	return trail
}
