package usecase

import (
	"strings"

	"github.com/packlens/backend/internal/domain"
)

// nameKeywordTable maps product-name keywords to categories, checked in
// order across both Japanese and English. A hit here overrides whatever
// category the extractor claimed: the product name is the stronger
// signal when the two disagree.
var nameKeywordTable = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryChocolate, []string{"チョコ", "chocolate", "ショコラ"}},
	{domain.CategoryGummy, []string{"グミ", "gummy", "ガム"}},
	{domain.CategoryCookie, []string{"クッキー", "cookie", "ビスケット", "biscuit"}},
	{domain.CategorySnack, []string{"スナック", "snack", "チップス", "chips", "せんべい"}},
	{domain.CategoryDonut, []string{"ドーナツ", "donut", "ドーナッツ"}},
	{domain.CategoryJelly, []string{"ゼリー", "jelly", "プリン", "pudding"}},
	{domain.CategoryNoodle, []string{"麺", "ラーメン", "うどん", "そば", "noodle", "ヌードル"}},
	{domain.CategorySupplement, []string{"サプリ", "supplement", "ビタミン", "vitamin"}},
	{domain.CategoryBeverage, []string{"飲料", "ドリンク", "ジュース", "beverage", "drink"}},
	{domain.CategoryProtein, []string{"プロテイン", "protein"}},
}

// categoryAliases maps Japanese labels and legacy spellings onto the
// canonical set.
var categoryAliases = map[string]domain.Category{
	"チョコレート":   domain.CategoryChocolate,
	"チョコ":      domain.CategoryChocolate,
	"グミ":       domain.CategoryGummy,
	"クッキー":     domain.CategoryCookie,
	"ビスケット":    domain.CategoryCookie,
	"焼き菓子":     domain.CategoryCookie,
	"スナック":     domain.CategorySnack,
	"せんべい":     domain.CategorySnack,
	"ドーナツ":     domain.CategoryDonut,
	"ゼリー":      domain.CategoryJelly,
	"プリン":      domain.CategoryJelly,
	"麺類":       domain.CategoryNoodle,
	"ラーメン":     domain.CategoryNoodle,
	"うどん":      domain.CategoryNoodle,
	"そば":       domain.CategoryNoodle,
	"サプリメント":   domain.CategorySupplement,
	"健康食品":     domain.CategorySupplement,
	"飲料":       domain.CategoryBeverage,
	"ドリンク":     domain.CategoryBeverage,
	"ジュース":     domain.CategoryBeverage,
	"プロテイン":    domain.CategoryProtein,
	"その他":      domain.CategoryOther,
	// Legacy spelling kept for records produced by earlier versions
	"Noodles": domain.CategoryNoodle,
}

// NormalizeCategory resolves a free-form category claim onto the
// canonical set. Precedence: product-name keyword, exact canonical
// match, alias table, then Other. Idempotent.
func NormalizeCategory(candidate, productName string) domain.Category {
	if productName != "" {
		nameLower := strings.ToLower(productName)
		for _, entry := range nameKeywordTable {
			for _, keyword := range entry.keywords {
				if strings.Contains(nameLower, strings.ToLower(keyword)) {
					return entry.category
				}
			}
		}
	}

	if candidate != "" {
		if c, ok := domain.ParseCategory(candidate); ok {
			return c
		}
		if c, ok := categoryAliases[candidate]; ok {
			return c
		}
	}

	return domain.CategoryOther
}
