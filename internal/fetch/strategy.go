package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Strategy names, in the chain's fixed escalation order.
const (
	StrategyDirect = "direct"
	StrategyRetry  = "retry"
	StrategyReader = "reader"
	StrategyRender = "render"
)

// DefaultOrder is the full chain: cheapest first, slowest and most
// resource-hungry last.
var DefaultOrder = []string{StrategyDirect, StrategyRetry, StrategyReader, StrategyRender}

// Payload is one strategy's successful raw result. Either HTML carries markup
// that still needs extraction, or Title/Body carry a document the strategy
// already extracted (the reader service returns clean text).
type Payload struct {
	HTML  []byte
	Title string
	Body  string
}

func (p *Payload) preExtracted() bool { return p.HTML == nil }

// Attempt records one concrete try against the origin. The ordered sequence
// of attempts for a request is the diagnostic trail; it is append-only and
// survives a later success.
type Attempt struct {
	Strategy string
	Ordinal  int
	Duration time.Duration
	Class    Class
	Err      error // nil on the winning attempt
}

func (a Attempt) String() string {
	if a.Err == nil {
		return fmt.Sprintf("#%d %s: ok (%s)", a.Ordinal, a.Strategy, a.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("#%d %s: %s, %s (%s)", a.Ordinal, a.Strategy, kind(a.Err), a.Class, a.Duration.Round(time.Millisecond))
}

// Strategy is one way of retrieving document content from a URL. A strategy
// returns every attempt it made; the last entry mirrors the returned error
// (nil on success). Strategies never retry each other — escalation is the
// chain's job.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Payload, []Attempt, error)
}

// ExhaustedError is returned when every strategy failed. It carries the full
// classified trail so the caller can see which layer blocked without
// re-running diagnostics.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	last := "no attempts"
	if n := len(e.Attempts); n > 0 {
		last = kind(e.Attempts[n-1].Err)
	}
	return fmt.Sprintf("all strategies failed after %d attempts (last: %s)", len(e.Attempts), last)
}

// Trail renders the attempt sequence as one line per attempt, for logs and
// job progress reporting.
func (e *ExhaustedError) Trail() string {
	lines := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		lines = append(lines, a.String())
	}
	return strings.Join(lines, "\n")
}
