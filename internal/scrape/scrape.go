// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scrape fetches a page as markdown through a Firecrawl-compatible
// scrape API. Scraping is optional: without FIRECRAWL_API_KEY the client
// reports itself disabled and callers skip enrichment.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// EnvVar names the variable holding the API key.
	EnvVar = "FIRECRAWL_API_KEY"

	// MaxChars caps the markdown kept per page.
	MaxChars = 15000

	defaultBaseURL = "https://api.firecrawl.dev"
	timeout        = 30 * time.Second
)

// ErrDisabled is returned by Scrape when no API key is set.
var ErrDisabled = errors.New("scrape: disabled")

// Page is the scraped content of one URL.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

// Client talks to the scrape API.
type Client struct {
	baseURL string
	keys    func(string) string
	client  *http.Client
}

// New creates a client. An empty baseURL uses the public Firecrawl API;
// a nil keys func reads the process environment on every call.
func New(baseURL string, keys func(string) string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if keys == nil {
		keys = os.Getenv
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		keys:    keys,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) apiKey() string {
	return strings.TrimSpace(c.keys(EnvVar))
}

// Enabled reports whether an API key is set.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey() != ""
}

// Scrape fetches rawURL as markdown. Only http and https URLs are accepted.
func (c *Client) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("scrape: invalid url %q", rawURL)
	}

	payload, err := json.Marshal(scrapeRequest{URL: u.String(), Formats: []string{"markdown"}, OnlyMainContent: true})
	if err != nil {
		return nil, fmt.Errorf("scrape marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("scrape read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result scrapeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("scrape unmarshal: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("scrape: %s", result.Error)
	}

	return &Page{
		URL:      u.String(),
		Title:    strings.TrimSpace(result.Data.Metadata.Title),
		Markdown: Truncate(result.Data.Markdown, MaxChars),
	}, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
	} `json:"data"`
}
