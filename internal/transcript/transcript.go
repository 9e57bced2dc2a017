// Package transcript fetches YouTube captions through the public timedtext
// endpoint and flattens them into plain source text for generation.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is YouTube's caption endpoint.
	DefaultBaseURL = "https://www.youtube.com/api/timedtext"
	// DefaultOEmbedURL resolves a video's title without an API key.
	DefaultOEmbedURL = "https://www.youtube.com/oembed"
)

// Client fetches captions for single videos. The zero value is usable.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	OEmbedURL  string
	UserAgent  string
	// Language is the caption language code. Empty means "en".
	Language string
}

// Fetch returns the video title and the full caption text. A video without
// captions in the requested language is an error; the caller decides whether
// to surface or skip it.
func (c *Client) Fetch(ctx context.Context, videoID string) (string, string, error) {
	if videoID == "" {
		return "", "", fmt.Errorf("video ID is required")
	}
	text, err := c.fetchCaptions(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	title := c.fetchTitle(ctx, videoID)
	return title, text, nil
}

func (c *Client) fetchCaptions(ctx context.Context, videoID string) (string, error) {
	lang := c.Language
	if lang == "" {
		lang = "en"
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	body, status, err := c.get(ctx, base+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("timedtext request: %w", err)
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("no %s captions for video %s", lang, videoID)
	case http.StatusForbidden:
		return "", fmt.Errorf("captions blocked for video %s (region restriction or disabled)", videoID)
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("rate limited by YouTube")
	default:
		return "", fmt.Errorf("timedtext status %d", status)
	}

	text, err := parseTimedtext(body)
	if err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("empty caption track for video %s", videoID)
	}
	return text, nil
}

// fetchTitle asks the oEmbed endpoint for the title. Failures degrade to a
// placeholder; a missing title never fails the whole resolution.
func (c *Client) fetchTitle(ctx context.Context, videoID string) string {
	base := c.OEmbedURL
	if base == "" {
		base = DefaultOEmbedURL
	}
	params := url.Values{}
	params.Set("url", "https://www.youtube.com/watch?v="+videoID)
	params.Set("format", "json")

	fallback := "Video_" + videoID
	body, status, err := c.get(ctx, base+"?"+params.Encode())
	if err != nil || status != http.StatusOK {
		return fallback
	}
	var oe struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &oe); err != nil || strings.TrimSpace(oe.Title) == "" {
		return fallback
	}
	return strings.TrimSpace(oe.Title)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}

type timedtextResponse struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// parseTimedtext joins caption segments into one line of text, the shape the
// prompt template expects.
func parseTimedtext(data []byte) (string, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	var parts []string
	for _, ev := range resp.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		line := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}
