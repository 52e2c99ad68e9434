package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
)

// Fetcher retrieves web pages and reduces them to markdown text bounded by
// a token budget, so page content can be fed to a language model.
type Fetcher struct {
	config     *common.Config
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
	converter  *md.Converter
}

func NewFetcher(config *common.Config, logger arbor.ILogger) interfaces.ContentFetcher {
	converter := md.NewConverter("", true, nil)

	interval := config.Fetcher.RequestDelay
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Fetcher{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Fetcher.RequestTimeout,
		},
		limiter:   rate.NewLimiter(limit, 1),
		converter: converter,
	}
}

// Fetch downloads a page, strips boilerplate elements, converts the remainder
// to markdown, and truncates the result to the configured token budget.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("empty url")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.config.Fetcher.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch of %s returned status %d", pageURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.config.Fetcher.MaxBodySize)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	doc.Find("script, style, nav, header, footer, iframe, noscript, svg, form").Remove()

	html, err := doc.Find("body").Html()
	if err != nil || html == "" {
		html, err = doc.Html()
		if err != nil {
			return "", fmt.Errorf("failed to extract html from %s: %w", pageURL, err)
		}
	}

	markdown, err := f.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s to markdown: %w", pageURL, err)
	}

	text := TruncateTokens(markdown, f.config.Fetcher.TokenBudget)

	f.logger.Debug().
		Str("url", pageURL).
		Int("chars", len(text)).
		Msg("Fetched page content")
	return text, nil
}

// TruncateTokens keeps the first n whitespace-delimited tokens of text.
func TruncateTokens(text string, n int) string {
	if n <= 0 {
		return ""
	}

	fields := strings.Fields(text)
	if len(fields) <= n {
		return strings.TrimSpace(text)
	}
	return strings.Join(fields[:n], " ")
}
