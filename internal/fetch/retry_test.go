package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newRetry(attempts int) *retryStrategy {
	return &retryStrategy{
		client:      &http.Client{},
		maxAttempts: attempts,
		base:        time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	payload, attempts, err := newRetry(3).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if payload == nil || len(payload.HTML) == 0 {
		t.Fatal("expected HTML payload")
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", len(attempts))
	}
	if attempts[0].Err == nil || attempts[1].Err == nil || attempts[2].Err != nil {
		t.Fatalf("attempt errors out of order: %+v", attempts)
	}
}

// A 403 block is terminal for the direct strategy but still burns the full
// retry budget here: origin blocks are often capacity-based and transient.
func TestRetry_RetriesThroughForbidden(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, attempts, err := newRetry(3).Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts against a 403, got %d", calls)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", len(attempts))
	}
	for _, a := range attempts {
		if a.Class != Terminal {
			t.Fatalf("403 should classify terminal, got %v", a.Class)
		}
	}
}

func TestRetry_AbortsOnNotFound(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, attempts, err := newRetry(3).Fetch(context.Background(), srv.URL)
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusNotFound {
		t.Fatalf("expected http 404, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", calls)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", len(attempts))
	}
}

// Backoff applies only between attempts: none before the first, doubling
// after. With a 50ms base the two delays are 100ms and 200ms.
func TestRetry_BackoffTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := &retryStrategy{client: &http.Client{}, maxAttempts: 3, base: 50 * time.Millisecond}
	start := time.Now()
	_, _, err := s.Fetch(context.Background(), srv.URL)
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected failure")
	}
	if elapsed < 300*time.Millisecond {
		t.Fatalf("expected at least 300ms of backoff, elapsed %v", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("backoff took unexpectedly long: %v", elapsed)
	}
}

func TestRetry_ContextCancelStopsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newRetry(3).Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
