package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/notsoquietly/articlestudio/internal/generate"
	"github.com/notsoquietly/articlestudio/internal/jobs"
	"github.com/notsoquietly/articlestudio/internal/store"
)

func newTestServer(t *testing.T, run Runner) (*Server, http.Handler) {
	t.Helper()
	if run == nil {
		run = func(ctx context.Context, sourceURL string, report func(string)) (any, error) {
			return map[string]string{"source_url": sourceURL}, nil
		}
	}
	s := &Server{
		Jobs:  jobs.NewStore(),
		Store: &store.Store{Dir: t.TempDir()},
		Run:   run,
	}
	return s, s.Handler()
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate_QueuesJob(t *testing.T) {
	ran := make(chan string, 1)
	s, h := newTestServer(t, func(ctx context.Context, sourceURL string, report func(string)) (any, error) {
		ran <- sourceURL
		return nil, nil
	})

	rec := postJSON(h, "/api/generate", `{"source_url":"https://example.com/post"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["job_id"] == "" || resp["status"] != string(jobs.StatusQueued) {
		t.Fatalf("unexpected response: %v", resp)
	}

	select {
	case got := <-ran:
		if got != "https://example.com/post" {
			t.Fatalf("runner got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner never invoked")
	}
	if _, ok := s.Jobs.Get(resp["job_id"]); !ok {
		t.Fatal("job not tracked in store")
	}
}

func TestGenerate_LegacyVideoURLField(t *testing.T) {
	ran := make(chan string, 1)
	_, h := newTestServer(t, func(ctx context.Context, sourceURL string, report func(string)) (any, error) {
		ran <- sourceURL
		return nil, nil
	})

	rec := postJSON(h, "/api/generate", `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	select {
	case got := <-ran:
		if got != "https://youtu.be/dQw4w9WgXcQ" {
			t.Fatalf("runner got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner never invoked")
	}
}

func TestGenerate_BadRequests(t *testing.T) {
	_, h := newTestServer(t, nil)
	for _, body := range []string{"not json", "{}", `{"source_url":"  "}`} {
		if rec := postJSON(h, "/api/generate", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestJob_PollLifecycle(t *testing.T) {
	_, h := newTestServer(t, func(ctx context.Context, sourceURL string, report func(string)) (any, error) {
		report("working")
		return map[string]int{"count": 1}, nil
	})

	rec := postJSON(h, "/api/generate", `{"source_url":"https://example.com/x"}`)
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	id := resp["job_id"]

	deadline := time.Now().Add(2 * time.Second)
	var job jobs.Job
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil)
		poll := httptest.NewRecorder()
		h.ServeHTTP(poll, req)
		if poll.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", poll.Code)
		}
		if err := json.NewDecoder(poll.Body).Decode(&job); err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if job.Status == jobs.StatusCompleted {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("job never completed: %+v", job)
	}
	if len(job.Progress) != 1 || job.Progress[0].Msg != "working" {
		t.Fatalf("unexpected progress: %+v", job.Progress)
	}
}

func TestJob_NotFound(t *testing.T) {
	_, h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestVideos_ListsSavedSources(t *testing.T) {
	s, h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %q", got)
	}

	if _, err := s.Store.Save(
		store.Source{Title: "Talk", URL: "https://example.com/t", Type: "article"},
		[]generate.Article{{Title: "A", Body: "B"}},
	); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	var sources []store.SourceSummary
	if err := json.NewDecoder(rec.Body).Decode(&sources); err != nil {
		t.Fatalf("decode sources: %v", err)
	}
	if len(sources) != 1 || sources[0].Title != "Talk" || sources[0].ArticleCount != 1 {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestMethodRouting(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generate", nil))
	if rec.Code != http.StatusMethodNotAllowed && rec.Code != http.StatusNotFound {
		t.Fatalf("GET /api/generate should not be routed, got %d", rec.Code)
	}
}
