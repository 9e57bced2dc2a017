package fetch

import (
	"context"
	"io"
	"net/http"
)

// DefaultUserAgent mimics a current desktop Chrome; many origins serve
// degraded or blocked responses to anything that does not look like a
// browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response we are willing to read.
const maxBodyBytes = int64(10 * 1024 * 1024)

// browserHeaders sets the full header set a real navigation request carries.
// The Sec-Fetch-* trio matters: several bot walls check for it.
func browserHeaders(req *http.Request, userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	// Accept-Encoding is left to the transport so gzip bodies come back
	// decompressed.
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Cache-Control", "max-age=0")
}

// getHTML issues one GET with browser headers and returns the body bytes.
// Non-2xx statuses come back as *HTTPError; transport failures pass through
// for the classifier.
func getHTML(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	browserHeaders(req, userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return b, nil
}
