package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/notsoquietly/articlestudio/internal/fetch"
)

type fakeDocuments struct {
	called bool
	out    fetch.Outcome
	err    error
}

func (f *fakeDocuments) Fetch(ctx context.Context, url string) (fetch.Outcome, error) {
	f.called = true
	return f.out, f.err
}

type fakeTranscripts struct {
	called bool
	title  string
	text   string
	err    error
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) (string, string, error) {
	f.called = true
	return f.title, f.text, f.err
}

func TestResolve_InvalidURLMakesNoNetworkCall(t *testing.T) {
	docs := &fakeDocuments{}
	trans := &fakeTranscripts{}
	r := &Resolver{Documents: docs, Transcripts: trans}

	for _, raw := range []string{"", "not a url", "ftp://example.com/x", "example.com/path", "//missing-scheme.com"} {
		_, err := r.Resolve(context.Background(), Request{URL: raw})
		if !errors.Is(err, fetch.ErrInvalidURL) {
			t.Fatalf("%q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
	if docs.called || trans.called {
		t.Fatal("invalid URLs must not reach any fetcher")
	}
}

func TestResolve_AutoDetectsVideoHosts(t *testing.T) {
	trans := &fakeTranscripts{title: "Talk", text: "transcript text"}
	docs := &fakeDocuments{}
	r := &Resolver{Documents: docs, Transcripts: trans}

	for _, raw := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
	} {
		content, err := r.Resolve(context.Background(), Request{URL: raw})
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if content.Strategy != "transcript" || content.SourceID != "dQw4w9WgXcQ" {
			t.Fatalf("%q: unexpected content %+v", raw, content)
		}
	}
	if docs.called {
		t.Fatal("video URLs must not enter the strategy chain")
	}
}

func TestResolve_ArticlePathUsesChain(t *testing.T) {
	docs := &fakeDocuments{out: fetch.Outcome{
		Doc:      &fetch.Document{Title: "T", Body: "B", Strategy: fetch.StrategyDirect},
		Attempts: []fetch.Attempt{{Strategy: fetch.StrategyDirect, Ordinal: 1}},
	}}
	r := &Resolver{Documents: docs, Transcripts: &fakeTranscripts{}}

	content, err := r.Resolve(context.Background(), Request{URL: "https://example.com/post"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Strategy != fetch.StrategyDirect || content.Title != "T" {
		t.Fatalf("unexpected content: %+v", content)
	}
	if len(content.Attempts) != 1 {
		t.Fatal("diagnostic trail must be preserved on success")
	}
}

// An explicit hint is trusted even when detection disagrees; the mismatched
// path then fails naturally.
func TestResolve_ExplicitHintBypassesDetection(t *testing.T) {
	docs := &fakeDocuments{out: fetch.Outcome{Doc: &fetch.Document{Title: "T", Body: "B", Strategy: fetch.StrategyReader}}}
	trans := &fakeTranscripts{err: errors.New("no captions")}
	r := &Resolver{Documents: docs, Transcripts: trans}

	// YouTube URL forced down the article path.
	content, err := r.Resolve(context.Background(), Request{
		URL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Type: SourceArticle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !docs.called || content.Type != SourceArticle {
		t.Fatal("article hint was not honored")
	}
	if trans.called {
		t.Fatal("transcript fetcher ran despite article hint")
	}
}

func TestResolve_ChainExhaustionPropagates(t *testing.T) {
	exhausted := &fetch.ExhaustedError{Attempts: []fetch.Attempt{{Strategy: fetch.StrategyDirect, Ordinal: 1, Err: &fetch.HTTPError{Status: 403}}}}
	docs := &fakeDocuments{out: fetch.Outcome{Attempts: exhausted.Attempts}, err: exhausted}
	r := &Resolver{Documents: docs}

	_, err := r.Resolve(context.Background(), Request{URL: "https://example.com/x"})
	var got *fetch.ExhaustedError
	if !errors.As(err, &got) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
}

func TestVideoID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=30s", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch", "", false},
		{"https://www.youtube.com/watch?v=short", "", false},
	}
	for _, tc := range cases {
		got, err := VideoID(tc.raw)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %q, %v", tc.raw, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.raw)
		}
	}
}

func TestSourceID(t *testing.T) {
	id := SourceID("https://example.com/posts/2024/some-long-title-that-keeps-going-and-going-forever")
	if len(id) > 50 {
		t.Fatalf("id too long: %d", len(id))
	}
	if id[0] == '-' || id[len(id)-1] == '-' {
		t.Fatalf("id has dangling separators: %q", id)
	}
	if SourceID("https://example.com/a") != SourceID("https://example.com/a") {
		t.Fatal("id must be stable")
	}
}
