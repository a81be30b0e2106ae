package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SynthForge/internal/config"
	"SynthForge/internal/domain"
	"SynthForge/internal/ports"
)

const maxExtractChars = 4000

// PageFetcher pulls reference pages configured per topic and extracts their
// text so research prompts can be grounded in real source material.
type PageFetcher struct {
	client *http.Client
	sites  []config.ReferenceSite
}

var _ ports.SourceFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client with the configured reference sites.
func NewPageFetcher(client *http.Client, sites []config.ReferenceSite) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageFetcher{client: client, sites: sites}
}

// FetchSources downloads every reference page matching the topic filter and
// returns source attribution plus the concatenated page text. A page that
// fails to download is skipped; fetching fails only when no page succeeded.
func (f *PageFetcher) FetchSources(ctx context.Context, topic, subTopic string) ([]domain.SourceRecord, string, error) {
	matched := f.matchSites(topic, subTopic)
	if len(matched) == 0 {
		return nil, "", nil
	}

	var (
		records []domain.SourceRecord
		texts   []string
		lastErr error
	)

	for _, site := range matched {
		title, text, err := f.extractPage(ctx, site.URL)
		if err != nil {
			lastErr = fmt.Errorf("site %s: %w", site.Name, err)
			continue
		}
		if title == "" {
			title = site.Name
		}
		records = append(records, domain.SourceRecord{
			URL:         site.URL,
			Title:       title,
			License:     site.License,
			Reliability: site.Reliability,
		})
		texts = append(texts, text)
	}

	if len(records) == 0 && lastErr != nil {
		return nil, "", &domain.TransientError{Op: "fetch sources", Err: lastErr}
	}
	return records, strings.Join(texts, "\n\n"), nil
}

func (f *PageFetcher) matchSites(topic, subTopic string) []config.ReferenceSite {
	var matched []config.ReferenceSite
	for _, site := range f.sites {
		if site.Topic != "" && !strings.EqualFold(site.Topic, topic) {
			continue
		}
		if site.SubTopic != "" && !strings.EqualFold(site.SubTopic, subTopic) {
			continue
		}
		matched = append(matched, site)
	}
	return matched
}

func (f *PageFetcher) extractPage(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SynthForge/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse document: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	return title, extractText(doc), nil
}

// extractText collects paragraph and heading text up to a size cap; scripts,
// styles and navigation chrome are ignored.
func extractText(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("p, h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return true
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
		return b.Len() < maxExtractChars
	})

	out := b.String()
	if len(out) > maxExtractChars {
		out = out[:maxExtractChars]
	}
	return out
}
