package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultReaderBaseURL is the Jina Reader endpoint: prefixing any URL with it
// yields the page converted to clean text, JavaScript rendering included.
const DefaultReaderBaseURL = "https://r.jina.ai"

// readerStrategy delegates fetching and extraction to the remote reader
// service. Its success already carries a (title, body) pair, so the chain
// skips the local extractor for this strategy.
type readerStrategy struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func (s *readerStrategy) Name() string { return StrategyReader }

func (s *readerStrategy) Fetch(ctx context.Context, url string) (*Payload, []Attempt, error) {
	start := time.Now()
	payload, err := s.call(ctx, url)
	a := Attempt{Strategy: s.Name(), Duration: time.Since(start), Err: err}
	if err != nil {
		a.Class = Classify(err)
		return nil, []Attempt{a}, err
	}
	return payload, []Attempt{a}, nil
}

func (s *readerStrategy) call(ctx context.Context, url string) (*Payload, error) {
	base := s.baseURL
	if base == "" {
		base = DefaultReaderBaseURL
	}
	endpoint := strings.TrimRight(base, "/") + "/" + url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	ua := s.userAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 403/429 from the reader mean the reader itself is rate-limited,
		// not necessarily that the origin blocks it.
		return nil, &RemoteServiceError{Status: resp.StatusCode}
	}

	var rr readerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&rr); err != nil {
		return nil, &RemoteServiceError{Status: resp.StatusCode, Reason: "malformed JSON body"}
	}
	return &Payload{
		Title: strings.TrimSpace(rr.Data.Title),
		Body:  strings.TrimSpace(rr.Data.Content),
	}, nil
}

type readerResponse struct {
	Data struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"data"`
}
