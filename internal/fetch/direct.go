package fetch

import (
	"context"
	"net/http"
	"time"
)

// directStrategy is the cheapest try: a single GET dressed up as a browser
// navigation. It never retries; any failure falls through to the next
// strategy.
type directStrategy struct {
	client    *http.Client
	userAgent string
}

func (s *directStrategy) Name() string { return StrategyDirect }

func (s *directStrategy) Fetch(ctx context.Context, url string) (*Payload, []Attempt, error) {
	start := time.Now()
	body, err := getHTML(ctx, s.client, url, s.userAgent)
	a := Attempt{Strategy: s.Name(), Duration: time.Since(start), Err: err}
	if err != nil {
		a.Class = Classify(err)
		return nil, []Attempt{a}, err
	}
	return &Payload{HTML: body}, []Attempt{a}, nil
}
