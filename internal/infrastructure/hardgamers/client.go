package hardgamers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

const (
	BaseURL   = "https://www.hardgamers.com.ar"
	dealsPath = "/deals?page=1"

	maxRetries = 3
	retryDelay = 1 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client talks to the HardGamers storefront aggregator. It only fetches and
// extracts raw listings; price normalization happens upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// --- Implementation of Searcher ---

func (c *Client) Search(ctx context.Context, query string) ([]domain.RawListing, error) {
	u := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))

	doc, err := c.fetchDocument(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}
	return parseListings(doc, c.baseURL), nil
}

func (c *Client) Featured(ctx context.Context) ([]domain.RawListing, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+dealsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals page: %w", err)
	}
	return parseListings(doc, c.baseURL), nil
}

// fetchDocument retries transient failures with exponential backoff. The
// storefront drops requests under load, so a couple of retries go a long way.
func (c *Client) fetchDocument(ctx context.Context, u string) (*goquery.Document, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		doc, err := c.fetchOnce(ctx, u)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		c.logger.Warn("fetch attempt failed",
			slog.String("url", u),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt == maxRetries {
			break
		}

		delay := retryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}
