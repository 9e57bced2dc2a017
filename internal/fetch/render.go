package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer loads a URL in a real browser engine and returns the fully
// rendered markup. Implementations must scope the browser session to the
// call and release it on every exit path.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// renderStrategy is the last resort: slowest, heaviest, and the only
// strategy that can fail with a RenderError. It defeats client-side-rendered
// sites that serve an empty shell to plain HTTP clients.
type renderStrategy struct {
	renderer Renderer
}

func (s *renderStrategy) Name() string { return StrategyRender }

func (s *renderStrategy) Fetch(ctx context.Context, url string) (*Payload, []Attempt, error) {
	start := time.Now()
	html, err := s.renderer.Render(ctx, url)
	if err != nil {
		err = &RenderError{Err: err}
		a := Attempt{Strategy: s.Name(), Duration: time.Since(start), Err: err, Class: Classify(err)}
		return nil, []Attempt{a}, err
	}
	a := Attempt{Strategy: s.Name(), Duration: time.Since(start)}
	return &Payload{HTML: []byte(html)}, []Attempt{a}, nil
}

// DefaultSettleDelay is how long the renderer waits after document-ready for
// client-side frameworks to paint the article body.
const DefaultSettleDelay = 2 * time.Second

// ChromeRenderer drives a headless Chrome through the DevTools protocol. A
// fresh browser process is launched per call and torn down with it, so a
// failed render cannot leak OS processes.
type ChromeRenderer struct {
	UserAgent string
	// Settle is the fixed post-load delay. Zero means DefaultSettleDelay.
	Settle time.Duration
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	settle := r.Settle
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(ua),
		chromedp.NoSandbox,
	)
	actx, acancel := chromedp.NewExecAllocator(ctx, opts...)
	defer acancel()
	bctx, bcancel := chromedp.NewContext(actx)
	defer bcancel()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
