package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryStrategy repeats the direct GET a bounded number of times with
// exponential backoff. There is no delay before the first attempt; delays of
// 2x and 4x the base separate attempts two and three.
//
// 401/403 stay inside the retry budget even though the classifier calls them
// terminal: origin blocks are frequently capacity-based and clear between
// attempts. 404 and the remaining 4xx abort immediately.
type retryStrategy struct {
	client      *http.Client
	userAgent   string
	maxAttempts int           // total attempts, including the first
	base        time.Duration // backoff base; first delay is 2*base
}

func (s *retryStrategy) Name() string { return StrategyRetry }

func (s *retryStrategy) Fetch(ctx context.Context, url string) (*Payload, []Attempt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * s.base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 60 * time.Second
	b.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)

	var trail []Attempt
	var payload *Payload
	op := func() error {
		start := time.Now()
		body, err := getHTML(ctx, s.client, url, s.userAgent)
		a := Attempt{Strategy: s.Name(), Duration: time.Since(start), Err: err}
		if err == nil {
			trail = append(trail, a)
			payload = &Payload{HTML: body}
			return nil
		}
		a.Class = Classify(err)
		trail = append(trail, a)
		if s.shouldRetry(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, bo); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, trail, err
	}
	return payload, trail, nil
}

func (s *retryStrategy) shouldRetry(err error) bool {
	if Classify(err) == Retryable {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden
	}
	return false
}
