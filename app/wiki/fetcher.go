package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	searchLimit              = 10
	minSummaryWords          = 20
	maxDisambiguationDepth   = 2
	readabilityExtractBudget = 1200
)

// Fetcher resolves a city to a Wikipedia summary. Every failure mode
// degrades to a placeholder result so a missing article never stops a
// video from being produced.
type Fetcher struct {
	api            API
	httpClient     *http.Client
	userAgent      string
	requestTimeout time.Duration
}

func NewFetcher(api API, httpClient *http.Client, userAgent string, requestTimeout time.Duration) *Fetcher {
	return &Fetcher{
		api:            api,
		httpClient:     httpClient,
		userAgent:      userAgent,
		requestTimeout: requestTimeout,
	}
}

// Fetch resolves the best matching article for a city and returns its
// summary chunked to chunkSize characters. Summaries shorter than 20
// words are extended with history and landmarks lookups.
func (f *Fetcher) Fetch(ctx context.Context, name, country string, sentences, chunkSize int) *Summary {
	page := f.resolve(ctx, name, country, sentences, 0)
	if page == nil {
		slog.Warn("No Wikipedia article resolved, using placeholder", "city", name, "country", country)
		result := Placeholder(name)
		result.Chunks = Chunk(result.Summary, chunkSize)
		return result
	}

	summary := strings.TrimSpace(page.Extract)
	if summary == "" && page.URL != "" {
		summary = f.extractFromHTML(ctx, page.URL)
	}

	if len(strings.Fields(summary)) < minSummaryWords {
		summary = f.extend(ctx, name, summary, sentences)
	}

	if strings.TrimSpace(summary) == "" {
		result := Placeholder(name)
		result.Chunks = Chunk(result.Summary, chunkSize)
		return result
	}

	return &Summary{
		Title:   page.Title,
		Summary: summary,
		Chunks:  Chunk(summary, chunkSize),
		URL:     page.URL,
	}
}

// resolve searches for the city and picks the best candidate: a title
// containing the country wins, then one containing the name, then the
// first result. Disambiguation pages recurse on the picked option with
// the country dropped.
func (f *Fetcher) resolve(ctx context.Context, name, country string, sentences, depth int) *Page {
	query := name
	if country != "" {
		query = fmt.Sprintf("%s, %s", name, country)
	}

	searchCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	titles, err := f.api.Search(searchCtx, query, searchLimit)
	cancel()
	if err != nil {
		slog.Warn("Wikipedia search failed", "query", query, "error", err)
		return nil
	}
	if len(titles) == 0 {
		return nil
	}

	candidate := pickCandidate(titles, name, country)

	pageCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	page, err := f.api.Page(pageCtx, candidate, sentences)
	cancel()
	if err != nil {
		slog.Warn("Wikipedia page fetch failed", "title", candidate, "error", err)
		return nil
	}

	if page.Disambiguation {
		if depth >= maxDisambiguationDepth {
			slog.Warn("Disambiguation depth exhausted", "title", page.Title)
			return nil
		}
		option := f.pickDisambiguationOption(ctx, page.Title, name, country)
		if option == "" {
			return nil
		}
		slog.Debug("Following disambiguation option", "from", page.Title, "to", option)
		return f.resolve(ctx, option, "", sentences, depth+1)
	}

	return page
}

func pickCandidate(titles []string, name, country string) string {
	if country != "" {
		for _, title := range titles {
			if containsFold(title, country) {
				return title
			}
		}
	}
	for _, title := range titles {
		if containsFold(title, name) {
			return title
		}
	}
	return titles[0]
}

func (f *Fetcher) pickDisambiguationOption(ctx context.Context, title, name, country string) string {
	linksCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	options, err := f.api.Links(linksCtx, title, 50)
	cancel()
	if err != nil {
		slog.Warn("Failed to list disambiguation options", "title", title, "error", err)
		return ""
	}
	if len(options) == 0 {
		return ""
	}

	if country != "" {
		for _, option := range options {
			if containsFold(option, country) {
				return option
			}
		}
	}
	for _, option := range options {
		if containsFold(option, name) {
			return option
		}
	}
	return options[0]
}

// extend appends best-effort history and landmarks summaries to a too
// short base summary.
func (f *Fetcher) extend(ctx context.Context, name, summary string, sentences int) string {
	parts := []string{}
	if strings.TrimSpace(summary) != "" {
		parts = append(parts, strings.TrimSpace(summary))
	}

	for _, topic := range []string{"history", "landmarks"} {
		page := f.resolve(ctx, fmt.Sprintf("%s %s", name, topic), "", sentences, maxDisambiguationDepth)
		if page == nil {
			continue
		}
		extract := strings.TrimSpace(page.Extract)
		if extract != "" {
			parts = append(parts, extract)
		}
	}

	return strings.Join(parts, " ")
}

// extractFromHTML fetches the article page and runs the readability
// extractor over it. Used when the API extract comes back empty.
func (f *Fetcher) extractFromHTML(ctx context.Context, pageURL string) string {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.Warn("Failed to fetch article page", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		slog.Warn("Readability extraction failed", "url", pageURL, "error", err)
		return ""
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	chunks := Chunk(text, readabilityExtractBudget)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
