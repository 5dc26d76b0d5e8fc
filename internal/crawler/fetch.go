// Package crawler collects catalog items from the vendor's product pages and
// extracts readable text from arbitrary job-description URLs.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxFetchedText caps extracted page text. Job descriptions fit comfortably;
// anything longer is boilerplate that only dilutes the query embedding.
const maxFetchedText = 10000

// TextFetcher downloads a page and reduces it to plain text suitable for use
// as query input.
type TextFetcher struct {
	client *http.Client
	maxLen int
}

// NewTextFetcher creates a fetcher with the given request timeout.
func NewTextFetcher(timeout time.Duration) *TextFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TextFetcher{
		client: &http.Client{Timeout: timeout},
		maxLen: maxFetchedText,
	}
}

// FetchText downloads url and returns its visible text with scripts, styles,
// and markup removed and whitespace collapsed.
func (f *TextFetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	text := extractText(resp.Body)
	if len(text) > f.maxLen {
		text = text[:f.maxLen]
	}
	return text, nil
}

// extractText streams HTML tokens and keeps only visible text, skipping
// script, style, and noscript subtrees.
func extractText(r io.Reader) string {
	tz := html.NewTokenizer(r)

	var b strings.Builder
	skipDepth := 0
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := tz.TagName()
			if isInvisibleTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if isInvisibleTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tz.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isInvisibleTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
