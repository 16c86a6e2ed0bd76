package domain

import (
	"strings"
	"time"
)

// FeedEntry is one item as returned by a feed source, before selection.
type FeedEntry struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
}

// Candidate is the feed entry picked for a pipeline run. It is transient
// and never persisted directly.
type Candidate struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt *time.Time
}

// SelectCandidate picks the entry to narrate: the first entry published
// inside the lookback window, or the first entry overall when nothing is
// recent enough. Returns false only for an empty entry list.
func SelectCandidate(entries []FeedEntry, lookback time.Duration, now time.Time) (Candidate, bool) {
	if len(entries) == 0 {
		return Candidate{}, false
	}

	cutoff := now.Add(-lookback)
	chosen := entries[0]
	for _, entry := range entries {
		if entry.PublishedAt != nil && !entry.PublishedAt.Before(cutoff) {
			chosen = entry
			break
		}
	}

	title := strings.TrimSpace(chosen.Title)
	if title == "" {
		title = "Untitled"
	}

	return Candidate{
		Title:       title,
		URL:         strings.TrimSpace(chosen.Link),
		Summary:     strings.TrimSpace(chosen.Summary),
		PublishedAt: chosen.PublishedAt,
	}, true
}
