package usecase

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/packlens/backend/internal/domain"
)

// Formatted price outcomes crossing the API boundary. A provider
// failure and a legitimate empty result are distinct and must never be
// conflated by a caller.
const (
	PriceNotFound     = "Price not found"
	PriceSearchFailed = "Price search failed"
)

// Reasonableness bound for a single price candidate, in JPY. Values
// outside the range are silently discarded.
const (
	minReasonablePrice = 100
	maxReasonablePrice = 100000
)

const (
	maxPriceSnippets    = 5
	defaultSitePause    = 300 * time.Millisecond
	priceQuerySuffix    = "価格 通販"
	taxQuerySuffix      = "税抜き 価格"
	taxAltQuerySuffix   = "本体価格"
	officialQuerySuffix = "公式 商品"
)

// Price patterns tried in order against each snippet. The bare 円 form
// requires a non-digit boundary so a partial tail of a longer number is
// never taken as a price.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`¥\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`),
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})+(?:\.\d+)?)\s*円`),
	regexp.MustCompile(`(?:^|[^\d,.])(\d+(?:\.\d+)?)\s*円`),
}

// Tax-excluded price patterns: 税抜1,234円, 本体価格1,234円,
// 1,234円(税抜), 1,234円+税.
var taxExcludedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`税抜[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*円?`),
	regexp.MustCompile(`本体[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*円?`),
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*円?\s*[(（]税抜`),
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*円?\s*[+＋]税`),
}

// Host fragments that disqualify a URL as a product-page source.
var blockedDomainPatterns = []string{
	".cn",
	"baidu.com",
	"zhidao.baidu",
	"alibaba.com",
	"taobao.com",
	"aliexpress.com",
	".ru",
	".kr",
}

// Host fragments preferred as reliable/local sources.
var trustedDomainPatterns = []string{
	".jp",
	".co.jp",
	"amazon.com",
}

// Marketplace hosts excluded when hunting for an official product page.
var marketplaceDomains = []string{
	"amazon", "rakuten", "yahoo", "kakaku", "mercari", "yodobashi",
}

// Marketplace fallbacks queried one by one, in preference order, when
// no official page turns up.
var fallbackSites = []string{
	"amazon.co.jp",
	"rakuten.co.jp",
	"shopping.yahoo.co.jp",
}

// CommerceConfig holds configuration for the commerce service.
type CommerceConfig struct {
	SitePause          time.Duration
	EnableDebugLogging bool
}

// CommerceService mines price estimates and a canonical product URL
// from unstructured search results.
type CommerceService struct {
	client    domain.SearchClient
	sitePause time.Duration
	debug     bool
}

// NewCommerceService creates a commerce miner backed by the given
// search client.
func NewCommerceService(client domain.SearchClient, config CommerceConfig) *CommerceService {
	pause := config.SitePause
	if pause <= 0 {
		pause = defaultSitePause
	}
	return &CommerceService{
		client:    client,
		sitePause: pause,
		debug:     config.EnableDebugLogging,
	}
}

// CommerceInfo bundles the three mined commerce fields. Nil pointer
// means "not found", which is a legitimate outcome, not an error.
type CommerceInfo struct {
	PriceInfo        string
	PriceTaxExcluded *string
	ProductURL       *string
}

// FindAll mines price, tax-excluded price and product URL for the
// resolved product name and manufacturer.
func (s *CommerceService) FindAll(ctx context.Context, productName, manufacturer string) CommerceInfo {
	return CommerceInfo{
		PriceInfo:        s.FindPrice(ctx, productName, manufacturer),
		PriceTaxExcluded: s.FindTaxExcludedPrice(ctx, productName, manufacturer),
		ProductURL:       s.FindProductURL(ctx, productName, manufacturer),
	}
}

// FindPrice searches for the product's street price and returns the
// formatted mean, PriceNotFound when no candidate survives, or
// PriceSearchFailed when the provider call itself fails.
func (s *CommerceService) FindPrice(ctx context.Context, productName, manufacturer string) string {
	query := joinQuery(productName, manufacturer, priceQuerySuffix)
	if s.debug {
		log.Printf("[COMMERCE] price query: %q", query)
	}

	snippets, err := s.client.Search(ctx, query, maxPriceSnippets)
	if err != nil {
		log.Printf("[COMMERCE] price search failed: %v", err)
		return PriceSearchFailed
	}

	var prices []float64
	for _, snip := range snippets {
		prices = append(prices, ExtractPrices(snip.Text())...)
	}
	if len(prices) == 0 {
		return PriceNotFound
	}

	estimate := domain.PriceEstimate{
		Mean:        int(mean(prices)),
		SampleCount: len(prices),
	}
	return estimate.String()
}

// FindTaxExcludedPrice mines prices quoted before consumption tax. The
// primary query is retried once with an alternate phrasing before
// giving up. Nil means nothing was found; callers omit the field.
func (s *CommerceService) FindTaxExcludedPrice(ctx context.Context, productName, manufacturer string) *string {
	query := joinQuery(productName, manufacturer, taxQuerySuffix)

	snippets, err := s.client.Search(ctx, query, maxPriceSnippets)
	if err != nil {
		log.Printf("[COMMERCE] tax-excluded search failed: %v", err)
		return nil
	}
	if len(snippets) == 0 {
		query = joinQuery(productName, manufacturer, taxAltQuerySuffix)
		snippets, err = s.client.Search(ctx, query, maxPriceSnippets)
		if err != nil || len(snippets) == 0 {
			return nil
		}
	}

	var prices []float64
	for _, snip := range snippets {
		prices = append(prices, ExtractTaxExcludedPrices(snip.Text())...)
	}
	if len(prices) == 0 {
		return nil
	}

	estimate := domain.PriceEstimate{
		Mean:        int(mean(prices)),
		TaxExcluded: true,
		SampleCount: len(prices),
	}
	formatted := estimate.String()
	return &formatted
}

// FindProductURL hunts for a canonical product page. Manufacturer-
// scoped official-site results are preferred, with trust filtering and
// a bias toward hosts carrying the manufacturer name; marketplace site
// queries are the fallback. Nil means fully exhausted, not an error.
func (s *CommerceService) FindProductURL(ctx context.Context, productName, manufacturer string) *string {
	if manufacturer != "" {
		query := joinQuery(productName, manufacturer, officialQuerySuffix)
		snippets, err := s.client.Search(ctx, query, maxPriceSnippets)
		if err != nil {
			log.Printf("[COMMERCE] official-site search failed: %v", err)
		} else {
			if u := pickOfficialURL(snippets, manufacturer); u != "" {
				return &u
			}
		}
	}

	// Fallback: query each marketplace individually, first hit wins. The
	// pause between sites is a cooperative throttle.
	base := joinQuery(productName, manufacturer, "")
	for i, site := range fallbackSites {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.sitePause):
			}
		}

		snippets, err := s.client.Search(ctx, "site:"+site+" "+base, 1)
		if err != nil {
			continue
		}
		for _, snip := range snippets {
			if snip.URL != "" && isTrustedURL(snip.URL) {
				u := snip.URL
				return &u
			}
		}
	}

	return nil
}

// pickOfficialURL applies trust filtering and marketplace exclusion,
// preferring a host that carries the normalized manufacturer name,
// falling back to the first surviving candidate.
func pickOfficialURL(snippets []domain.SearchSnippet, manufacturer string) string {
	normalized := strings.ToLower(strings.ReplaceAll(manufacturer, " ", ""))

	for _, snip := range snippets {
		if snip.URL == "" || !isTrustedURL(snip.URL) || isMarketplaceURL(snip.URL) {
			continue
		}
		host := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(snip.URL))
		if normalized != "" && strings.Contains(host, normalized) {
			return snip.URL
		}
	}

	for _, snip := range snippets {
		if snip.URL != "" && isTrustedURL(snip.URL) && !isMarketplaceURL(snip.URL) {
			return snip.URL
		}
	}

	return ""
}

// isTrustedURL rejects hosts on the blocklist; everything else passes,
// with domestic and known-reputable domains confirmed early.
func isTrustedURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	for _, blocked := range blockedDomainPatterns {
		if strings.Contains(lower, blocked) {
			return false
		}
	}
	for _, trusted := range trustedDomainPatterns {
		if strings.Contains(lower, trusted) {
			return true
		}
	}
	return true
}

func isMarketplaceURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, m := range marketplaceDomains {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// ExtractPrices mines tax-inclusive price candidates from snippet text,
// keeping only values within the reasonableness bound. Duplicate values
// are collapsed, first-seen order preserved.
func ExtractPrices(text string) []float64 {
	return minePrices(text, pricePatterns)
}

// ExtractTaxExcludedPrices mines prices keyed to tax-exclusion markers.
func ExtractTaxExcludedPrices(text string) []float64 {
	return minePrices(text, taxExcludedPatterns)
}

func minePrices(text string, patterns []*regexp.Regexp) []float64 {
	var prices []float64
	seen := make(map[float64]bool)

	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if price < minReasonablePrice || price > maxReasonablePrice {
				continue
			}
			if !seen[price] {
				seen[price] = true
				prices = append(prices, price)
			}
		}
	}

	return prices
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func joinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

