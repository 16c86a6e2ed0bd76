package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	"Mon, 02 Jan 2006 15:04:05 -0700", // common RSS custom format
	"2006-01-02T15:04:05Z",
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Client fetches and parses RSS 2.0 feeds.
type Client struct {
	http *http.Client
}

var _ ports.FeedSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 20s timeout default.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{http: client}
}

// Fetch downloads the feed and returns its entries in document order.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]domain.FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "influencer-automation/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse feed xml: %w", err)
	}

	entries := make([]domain.FeedEntry, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		entry := domain.FeedEntry{
			Title:   strings.TrimSpace(item.Title),
			Link:    strings.TrimSpace(item.Link),
			Summary: strings.TrimSpace(item.Description),
		}
		if ts, ok := parsePubDate(item.PubDate); ok {
			entry.PublishedAt = &ts
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parsePubDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
