package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

const (
	// Extractions below this word count are treated as failed and fall
	// through to the next strategy.
	minWords = 120
	// Cap so oversized pages do not flood the script generator.
	maxChars     = 20000
	maxBodyBytes = 4 << 20
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
)

// Extractor pulls best-effort article body text for a URL. Network and
// parse problems never surface as errors; the caller-supplied fallback is
// returned instead.
type Extractor struct {
	http   *http.Client
	logger *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client; a nil client gets a 20s timeout default.
func NewExtractor(client *http.Client, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{http: client, logger: logger}
}

// Extract tries readability extraction first, then a plain paragraph
// sweep, and degrades to the fallback text when neither yields enough.
func (e *Extractor) Extract(ctx context.Context, pageURL, fallback string) string {
	body, contentType, err := e.download(ctx, pageURL)
	if err != nil {
		e.logger.Debug("extraction fetch failed", "url", pageURL, "error", err)
		return clean(fallback)
	}

	// PDFs and other binary payloads: the feed summary is all we have.
	if strings.Contains(contentType, "application/pdf") {
		return clean(fallback)
	}

	if text := e.readable(body, pageURL); goodEnough(text) {
		return text
	}
	if text := e.paragraphs(body); goodEnough(text) {
		return text
	}

	return clean(fallback)
}

func (e *Extractor) download(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "influencer-automation/1.0")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read page body: %w", err)
	}

	return body, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

func (e *Extractor) readable(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		e.logger.Debug("readability extraction failed", "url", pageURL, "error", err)
		return ""
	}

	return clean(article.TextContent)
}

// paragraphs is the degraded path: joined <p> text of the raw document.
func (e *Extractor) paragraphs(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	doc.Find("article p, main p, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	})

	return clean(sb.String())
}

func goodEnough(text string) bool {
	return len(strings.Fields(text)) >= minWords
}

func clean(text string) string {
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
