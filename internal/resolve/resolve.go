package resolve

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notsoquietly/articlestudio/internal/fetch"
)

// SourceType is an optional hint about what kind of content a URL points at.
// Explicit hints are trusted as given; a wrong hint just makes the mismatched
// path fail naturally.
type SourceType string

const (
	SourceAuto    SourceType = "auto"
	SourceVideo   SourceType = "video"
	SourceArticle SourceType = "article"
)

// Request is one immutable fetch request.
type Request struct {
	URL  string
	Type SourceType
	// Timeout overrides the chain's per-strategy budget when positive.
	Timeout time.Duration
}

// Content is the resolved source text handed to the generation step. For
// articles, Attempts carries the strategy chain's diagnostic trail.
type Content struct {
	SourceID string
	Title    string
	Body     string
	Type     SourceType
	// Strategy names the winning fetch strategy, or "transcript" for videos.
	Strategy string
	Attempts []fetch.Attempt
}

// DocumentFetcher is the article path: the strategy chain.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Outcome, error)
}

// TranscriptFetcher is the video path, an external collaborator.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (title, text string, err error)
}

// Resolver turns an arbitrary URL into usable source text. It holds no
// mutable state; concurrent invocations need no locking.
type Resolver struct {
	Documents   DocumentFetcher
	Transcripts TranscriptFetcher
}

// Resolve validates the URL, classifies it as video or article, and runs the
// matching path. Malformed URLs fail with fetch.ErrInvalidURL before any
// network call.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Content, error) {
	raw := strings.TrimSpace(req.URL)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", fetch.ErrInvalidURL, req.URL)
	}

	st := req.Type
	if st == "" || st == SourceAuto {
		if isVideoHost(u.Host) {
			st = SourceVideo
		} else {
			st = SourceArticle
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	switch st {
	case SourceVideo:
		return r.resolveVideo(ctx, raw)
	default:
		return r.resolveArticle(ctx, raw)
	}
}

func (r *Resolver) resolveVideo(ctx context.Context, rawURL string) (*Content, error) {
	if r.Transcripts == nil {
		return nil, fmt.Errorf("no transcript fetcher configured")
	}
	id, err := VideoID(rawURL)
	if err != nil {
		return nil, err
	}
	title, text, err := r.Transcripts.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("transcript for %s: %w", id, err)
	}
	return &Content{
		SourceID: id,
		Title:    title,
		Body:     text,
		Type:     SourceVideo,
		Strategy: "transcript",
	}, nil
}

func (r *Resolver) resolveArticle(ctx context.Context, rawURL string) (*Content, error) {
	if r.Documents == nil {
		return nil, fmt.Errorf("no document fetcher configured")
	}
	out, err := r.Documents.Fetch(ctx, rawURL)
	if err != nil {
		log.Warn().Str("url", rawURL).Int("attempts", len(out.Attempts)).Msg("all fetch strategies failed")
		return nil, err
	}
	return &Content{
		SourceID: SourceID(rawURL),
		Title:    out.Doc.Title,
		Body:     out.Doc.Body,
		Type:     SourceArticle,
		Strategy: out.Doc.Strategy,
		Attempts: out.Attempts,
	}, nil
}

// isVideoHost reports whether the host belongs to a known video platform.
func isVideoHost(host string) bool {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, prefix)
	}
	return host == "youtube.com" || host == "youtu.be"
}

// VideoID extracts the 11-character video ID from the usual YouTube URL
// shapes (watch?v=, youtu.be/, shorts/, embed/).
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q", fetch.ErrInvalidURL, rawURL)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				id = parts[1]
			}
		}
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("no video ID in URL %q", rawURL)
	}
	return id, nil
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// SourceID derives a stable, filesystem-safe identifier from an article URL.
func SourceID(rawURL string) string {
	s := strings.TrimPrefix(rawURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = slugPattern.ReplaceAllString(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return strings.Trim(s, "-")
}
