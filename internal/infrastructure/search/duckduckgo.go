package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/packlens/backend/internal/domain"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// Client queries the DuckDuckGo HTML endpoint and parses result
// snippets. Requests are throttled to stay well under the endpoint's
// tolerance; roughly one query per second with a small burst.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	region      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a search client scoped to the given regional code
// (e.g. "jp-jp"). An empty baseURL selects the public endpoint.
func NewClient(baseURL, region string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		region:      region,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// SetDebug toggles per-query logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Search issues one query and returns up to maxResults snippets. A
// transport or status failure is reported as ErrSearchProvider so
// callers can keep it distinct from an empty result list.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchSnippet, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	form := url.Values{}
	form.Add("q", query)
	if c.region != "" {
		form.Add("kl", c.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "PackLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSearchProvider, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchProvider, err)
	}

	snippets := parseResults(doc, maxResults)
	if c.debug {
		log.Printf("[SEARCH] %q returned %d snippets", query, len(snippets))
	}
	return snippets, nil
}

func parseResults(doc *goquery.Document, maxResults int) []domain.SearchSnippet {
	var snippets []domain.SearchSnippet

	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		body := strings.TrimSpace(sel.Find(".result__snippet").Text())

		if title == "" && body == "" {
			return true
		}
		snippets = append(snippets, domain.SearchSnippet{
			Title: title,
			Body:  body,
			URL:   resolveResultURL(href),
		})
		return maxResults <= 0 || len(snippets) < maxResults
	})

	return snippets
}

// resolveResultURL unwraps DuckDuckGo's redirect links, which carry the
// destination in the uddg query parameter.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.Contains(u.Path, "/l/") {
		if dest := u.Query().Get("uddg"); dest != "" {
			return dest
		}
	}
	return href
}

var _ domain.SearchClient = (*Client)(nil)
