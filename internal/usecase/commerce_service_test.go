package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/packlens/backend/internal/domain"
)

// stubSearchClient answers searches through a per-test function.
type stubSearchClient struct {
	search  func(query string) ([]domain.SearchSnippet, error)
	queries []string
}

func (s *stubSearchClient) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchSnippet, error) {
	s.queries = append(s.queries, query)
	if s.search == nil {
		return nil, nil
	}
	return s.search(query)
}

func newTestCommerce(client domain.SearchClient) *CommerceService {
	return NewCommerceService(client, CommerceConfig{SitePause: time.Millisecond})
}

func snippetWith(body, url string) domain.SearchSnippet {
	return domain.SearchSnippet{Title: "結果", Body: body, URL: url}
}

func TestExtractPrices(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{
			name: "plain yen amounts",
			text: "安い商品 100円 普通商品 5000円 高い商品 99999円",
			want: []float64{100, 5000, 99999},
		},
		{
			name: "out-of-range amounts are dropped",
			text: "商品コード 12345 価格 50円 高額商品 500000円",
			want: nil,
		},
		{
			name: "yen-symbol prefix",
			text: "特価 ¥1,980 にて販売中",
			want: []float64{1980},
		},
		{
			name: "comma-grouped yen suffix",
			text: "定価 12,800円 のところ",
			want: []float64{12800},
		},
		{
			name: "duplicates collapse",
			text: "価格 ¥1,234 または 1,234円",
			want: []float64{1234},
		},
		{
			name: "decimal amount",
			text: "平均 198.5円 程度",
			want: []float64{198.5},
		},
		{
			name: "no prices",
			text: "この商品はとてもおいしいです",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPrices(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractPrices(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTaxExcludedPrices(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{"tax-excluded label", "税抜 900円", []float64{900}},
		{"body-price label", "本体価格 1,480円", []float64{1480}},
		{"suffix parenthetical", "1,980円(税抜)", []float64{1980}},
		{"plus-tax suffix", "500円+税", []float64{500}},
		{"plain price is ignored", "特価 1,000円", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTaxExcludedPrices(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTaxExcludedPrices(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindPrice(t *testing.T) {
	t.Run("returns formatted mean of mined prices", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{
				snippetWith("ショップA 1000円", "https://a.example.jp"),
				snippetWith("ショップB 2000円", "https://b.example.jp"),
			}, nil
		}}
		svc := newTestCommerce(client)

		got := svc.FindPrice(context.Background(), "ミルクチョコレート", "テスト製菓")

		if got != "1500円" {
			t.Errorf("FindPrice() = %q, want 1500円", got)
		}
		if !strings.Contains(client.queries[0], "価格 通販") {
			t.Errorf("query = %q, want the price suffix", client.queries[0])
		}
	})

	t.Run("provider failure returns the failed sentinel", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return nil, errors.New("rate limited")
		}}
		svc := newTestCommerce(client)

		if got := svc.FindPrice(context.Background(), "チョコ", ""); got != PriceSearchFailed {
			t.Errorf("FindPrice() = %q, want %q", got, PriceSearchFailed)
		}
	})

	t.Run("no candidates returns the not-found sentinel", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{snippetWith("価格情報なし", "https://a.example.jp")}, nil
		}}
		svc := newTestCommerce(client)

		if got := svc.FindPrice(context.Background(), "チョコ", ""); got != PriceNotFound {
			t.Errorf("FindPrice() = %q, want %q", got, PriceNotFound)
		}
	})
}

func TestFindTaxExcludedPrice(t *testing.T) {
	t.Run("returns tagged estimate", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{snippetWith("税抜 900円", "https://a.example.jp")}, nil
		}}
		svc := newTestCommerce(client)

		got := svc.FindTaxExcludedPrice(context.Background(), "チョコ", "")

		if got == nil || *got != "900円(税抜)" {
			t.Errorf("FindTaxExcludedPrice() = %v, want 900円(税抜)", got)
		}
	})

	t.Run("retries with the alternate phrasing when the first query is empty", func(t *testing.T) {
		client := &stubSearchClient{}
		client.search = func(query string) ([]domain.SearchSnippet, error) {
			if strings.Contains(query, "本体価格") {
				return []domain.SearchSnippet{snippetWith("本体価格 1,480円", "https://a.example.jp")}, nil
			}
			return nil, nil
		}
		svc := newTestCommerce(client)

		got := svc.FindTaxExcludedPrice(context.Background(), "チョコ", "")

		if got == nil || *got != "1480円(税抜)" {
			t.Errorf("FindTaxExcludedPrice() = %v, want 1480円(税抜)", got)
		}
		if len(client.queries) != 2 {
			t.Errorf("queries = %d, want 2 (primary plus retry)", len(client.queries))
		}
	})

	t.Run("provider failure yields nil", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return nil, errors.New("rate limited")
		}}
		svc := newTestCommerce(client)

		if got := svc.FindTaxExcludedPrice(context.Background(), "チョコ", ""); got != nil {
			t.Errorf("FindTaxExcludedPrice() = %v, want nil", got)
		}
	})

	t.Run("nothing mined yields nil", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{snippetWith("通常価格 1,000円", "https://a.example.jp")}, nil
		}}
		svc := newTestCommerce(client)

		if got := svc.FindTaxExcludedPrice(context.Background(), "チョコ", ""); got != nil {
			t.Errorf("FindTaxExcludedPrice() = %v, want nil", got)
		}
	})
}

func TestFindProductURL(t *testing.T) {
	t.Run("prefers the manufacturer's own host", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{
				snippetWith("", "https://www.amazon.co.jp/dp/B000"),
				snippetWith("", "https://shop.example.co.jp/items/1"),
				snippetWith("", "https://www.testseika.co.jp/products/choco"),
			}, nil
		}}
		svc := newTestCommerce(client)

		got := svc.FindProductURL(context.Background(), "ミルクチョコレート", "testseika")

		if got == nil || *got != "https://www.testseika.co.jp/products/choco" {
			t.Errorf("FindProductURL() = %v, want the manufacturer host", got)
		}
	})

	t.Run("falls back to the first trusted non-marketplace result", func(t *testing.T) {
		client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
			return []domain.SearchSnippet{
				snippetWith("", "https://item.taobao.com/1"),
				snippetWith("", "https://shop.example.co.jp/items/1"),
			}, nil
		}}
		svc := newTestCommerce(client)

		got := svc.FindProductURL(context.Background(), "チョコ", "unrelated")

		if got == nil || *got != "https://shop.example.co.jp/items/1" {
			t.Errorf("FindProductURL() = %v, want the trusted candidate", got)
		}
	})

	t.Run("marketplace fallback when official search is empty", func(t *testing.T) {
		client := &stubSearchClient{}
		client.search = func(query string) ([]domain.SearchSnippet, error) {
			if strings.HasPrefix(query, "site:rakuten.co.jp") {
				return []domain.SearchSnippet{snippetWith("", "https://item.rakuten.co.jp/shop/choco")}, nil
			}
			return nil, nil
		}
		svc := newTestCommerce(client)

		got := svc.FindProductURL(context.Background(), "チョコ", "テスト製菓")

		if got == nil || *got != "https://item.rakuten.co.jp/shop/choco" {
			t.Errorf("FindProductURL() = %v, want the rakuten fallback", got)
		}
	})

	t.Run("exhausted fallbacks yield nil", func(t *testing.T) {
		client := &stubSearchClient{}
		svc := newTestCommerce(client)

		if got := svc.FindProductURL(context.Background(), "チョコ", ""); got != nil {
			t.Errorf("FindProductURL() = %v, want nil", got)
		}
		// No manufacturer, so only the marketplace queries run.
		if len(client.queries) != len(fallbackSites) {
			t.Errorf("queries = %d, want %d", len(client.queries), len(fallbackSites))
		}
	})

	t.Run("cancelled context stops the fallback walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &stubSearchClient{}
		svc := newTestCommerce(client)

		if got := svc.FindProductURL(ctx, "チョコ", ""); got != nil {
			t.Errorf("FindProductURL() = %v, want nil", got)
		}
		if len(client.queries) > 1 {
			t.Errorf("queries = %d, want at most 1 after cancellation", len(client.queries))
		}
	})
}

func TestIsTrustedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.example.co.jp/item", true},
		{"https://www.amazon.com/dp/B000", true},
		{"https://item.taobao.com/1", false},
		{"https://example.cn/product", false},
		{"https://shop.example.com/item", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := isTrustedURL(tt.url); got != tt.want {
				t.Errorf("isTrustedURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestFindAll(t *testing.T) {
	client := &stubSearchClient{search: func(query string) ([]domain.SearchSnippet, error) {
		switch {
		case strings.Contains(query, "価格 通販"):
			return []domain.SearchSnippet{snippetWith("特価 1,000円", "https://a.example.jp")}, nil
		case strings.Contains(query, "税抜き"):
			return []domain.SearchSnippet{snippetWith("税抜 900円", "https://a.example.jp")}, nil
		default:
			return []domain.SearchSnippet{snippetWith("", "https://www.testseika.co.jp/choco")}, nil
		}
	}}
	svc := newTestCommerce(client)

	got := svc.FindAll(context.Background(), "ミルクチョコレート", "testseika")

	if got.PriceInfo != "1000円" {
		t.Errorf("PriceInfo = %q, want 1000円", got.PriceInfo)
	}
	if got.PriceTaxExcluded == nil || *got.PriceTaxExcluded != "900円(税抜)" {
		t.Errorf("PriceTaxExcluded = %v, want 900円(税抜)", got.PriceTaxExcluded)
	}
	if got.ProductURL == nil || *got.ProductURL != "https://www.testseika.co.jp/choco" {
		t.Errorf("ProductURL = %v, want the official page", got.ProductURL)
	}
}
