package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/packlens/backend/internal/domain"
)

// Thresholds for deriving appeal tags from the nutrition facts panel,
// per 100g of product.
const (
	highProteinThresholdG   = 10.0
	lowCalorieThresholdKcal = 100.0
	lowSugarThresholdG      = 5.0
	highFiberThresholdG     = 5.0
)

// Maximum number of ingredients kept from the label; anything past the
// cap is truncated, not an error.
const maxIngredients = 15

// Package-level compiled regex patterns for field extraction
var (
	// Volume: number + unit, tried in order; first whole match wins
	volumePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:g|グラム)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ml|mL|ミリリットル)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:kg|キログラム)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:L|リットル)`),
		regexp.MustCompile(`(\d+)\s*(?:個|枚|本|袋)`),
		regexp.MustCompile(`内容量[:：\s]*(\d+(?:\.\d+)?)\s*(?:g|ml|個|枚)`),
	}

	// Manufacturer: labeled forms first, then a bare legal-entity form.
	// The captured class allows spaces but not newlines, so a capture
	// never crosses a fragment boundary.
	manufacturerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`製造者[:：\s]*([\x{4E00}-\x{9FFF}\x{3040}-\x{309F}\x{30A0}-\x{30FF}a-zA-Z0-9 　]+(?:株式会社|有限会社|合同会社)?)`),
		regexp.MustCompile(`販売者[:：\s]*([\x{4E00}-\x{9FFF}\x{3040}-\x{309F}\x{30A0}-\x{30FF}a-zA-Z0-9 　]+(?:株式会社|有限会社|合同会社)?)`),
		regexp.MustCompile(`([\x{4E00}-\x{9FFF}\x{3040}-\x{309F}\x{30A0}-\x{30FF}a-zA-Z0-9 　]+(?:株式会社|有限会社|合同会社|Co\.,Ltd\.|Inc\.))`),
	}

	ingredientsPattern = regexp.MustCompile(`原材料名?[:：\s]*([\x{4E00}-\x{9FFF}\x{3040}-\x{309F}\x{30A0}-\x{30FF}a-zA-Z0-9、,()（） 　]+)`)
	ingredientSplitter = regexp.MustCompile(`[、,]`)

	proteinPattern = regexp.MustCompile(`たんぱく質[:：\s]*(\d+(?:\.\d+)?)\s*g`)
	caloriePattern = regexp.MustCompile(`エネルギー[:：\s]*(\d+(?:\.\d+)?)\s*kcal`)
	sugarPattern   = regexp.MustCompile(`糖質[:：\s]*(\d+(?:\.\d+)?)\s*g`)
	fiberPattern   = regexp.MustCompile(`食物繊維[:：\s]*(\d+(?:\.\d+)?)\s*g`)
)

// labelKeywords mark fragments that are field labels rather than the
// product name.
var labelKeywords = []string{
	"原材料名", "内容量", "製造者", "販売者", "賞味期限",
	"保存方法", "栄養成分", "Ingredients", "Volume", "名称",
}

// claimKeywords are package claims collected into the appeals list when
// found anywhere in the recognized text.
var claimKeywords = []string{
	"糖質オフ", "糖質ゼロ", "低糖質", "糖質制限",
	"無添加", "保存料無添加", "着色料無添加",
	"低カロリー", "カロリーオフ", "ノンカロリー",
	"高タンパク", "タンパク質", "プロテイン",
	"低脂肪", "脂質ゼロ", "ノンファット",
	"食物繊維", "乳酸菌", "ビタミン", "ミネラル",
	"オーガニック", "有機", "国産", "無農薬",
	"グルテンフリー", "アレルゲンフリー",
	"機能性表示食品", "特定保健用食品", "トクホ",
}

// categoryBuckets are checked in order; the first bucket with any
// keyword present wins.
var categoryBuckets = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategorySnack, []string{
		"スナック", "お菓子", "チップス", "クッキー", "ビスケット",
		"チョコレート", "キャンディ", "グミ", "ポテト", "せんべい",
	}},
	{domain.CategoryNoodle, []string{
		"麺", "ラーメン", "うどん", "そば", "パスタ", "スパゲッティ",
		"インスタント麺", "カップ麺", "ヌードル", "中華麺",
	}},
	{domain.CategorySupplement, []string{
		"サプリメント", "プロテイン", "ビタミン", "ミネラル",
		"健康食品", "栄養補助食品", "機能性表示食品", "サプリ",
	}},
}

// ExtractFields runs the pattern cascade over recognized text fragments
// and returns a raw product record. The category is the bucket
// classifier's guess and still needs normalization.
func ExtractFields(fragments []string) domain.RawExtraction {
	fullText := strings.Join(fragments, "\n")

	return domain.RawExtraction{
		ProductName:  extractProductName(fragments),
		Volume:       extractVolume(fullText),
		Manufacturer: extractManufacturer(fragments, fullText),
		Ingredients:  extractIngredients(fullText),
		Appeals:      extractAppeals(fullText),
		Category:     string(classifyCategory(fullText)),
	}
}

// extractProductName picks the first of the leading five fragments that
// is not a field label and has a meaningful length.
func extractProductName(fragments []string) string {
	limit := len(fragments)
	if limit > 5 {
		limit = 5
	}

	for _, block := range fragments[:limit] {
		if isLabelFragment(block) {
			continue
		}
		if len([]rune(block)) > 2 {
			return block
		}
	}

	if len(fragments) > 0 {
		return fragments[0]
	}
	return domain.UnknownProductName
}

func isLabelFragment(block string) bool {
	for _, keyword := range labelKeywords {
		if strings.Contains(block, keyword) {
			return true
		}
	}
	return false
}

func extractVolume(fullText string) string {
	for _, pattern := range volumePatterns {
		if m := pattern.FindString(fullText); m != "" {
			return m
		}
	}
	return domain.UnknownVolume
}

func extractManufacturer(fragments []string, fullText string) string {
	for _, pattern := range manufacturerPatterns {
		if m := pattern.FindStringSubmatch(fullText); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	// Fallback: any fragment carrying a legal-entity suffix
	for _, block := range fragments {
		if strings.Contains(block, "株式会社") ||
			strings.Contains(block, "有限会社") ||
			strings.Contains(block, "Co.,Ltd") {
			return strings.TrimSpace(block)
		}
	}

	return domain.UnknownManufacturer
}

func extractIngredients(fullText string) []string {
	m := ingredientsPattern.FindStringSubmatch(fullText)
	if m == nil {
		return nil
	}

	var ingredients []string
	for _, token := range ingredientSplitter.Split(m[1], -1) {
		token = strings.TrimSpace(token)
		if len([]rune(token)) <= 1 {
			continue
		}
		ingredients = append(ingredients, token)
		if len(ingredients) == maxIngredients {
			break
		}
	}
	return ingredients
}

// extractAppeals unions package claim keywords with threshold-derived
// nutritional feature tags. Order is first-seen and stable.
func extractAppeals(fullText string) []string {
	var appeals []string
	seen := make(map[string]bool)

	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			appeals = append(appeals, tag)
		}
	}

	for _, keyword := range claimKeywords {
		if strings.Contains(fullText, keyword) {
			add(keyword)
		}
	}
	for _, tag := range extractNutritionalFeatures(fullText) {
		add(tag)
	}

	return appeals
}

// extractNutritionalFeatures derives appeal tags from labeled values in
// the nutrition facts panel. A missing label simply yields no tag.
func extractNutritionalFeatures(fullText string) []string {
	var features []string

	if v, ok := matchedValue(proteinPattern, fullText); ok && v >= highProteinThresholdG {
		features = append(features, "高タンパク")
	}
	if v, ok := matchedValue(caloriePattern, fullText); ok && v <= lowCalorieThresholdKcal {
		features = append(features, "低カロリー")
	}
	if v, ok := matchedValue(sugarPattern, fullText); ok && v <= lowSugarThresholdG {
		features = append(features, "低糖質")
	}
	if v, ok := matchedValue(fiberPattern, fullText); ok && v >= highFiberThresholdG {
		features = append(features, "食物繊維豊富")
	}

	return features
}

func matchedValue(pattern *regexp.Regexp, text string) (float64, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// classifyCategory assigns the coarse category bucket for the pattern
// strategy; the normalizer may still refine it using the product name.
func classifyCategory(fullText string) domain.Category {
	for _, bucket := range categoryBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(fullText, keyword) {
				return bucket.category
			}
		}
	}
	return domain.CategoryOther
}
