package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/packlens/backend/internal/domain"
)

// extractionPrompt is the fixed instruction template sent with the
// package photos. It mandates the exact JSON shape and the closed
// category list; the parser below depends on both.
const extractionPrompt = `
この商品画像を分析し、以下の情報をJSON形式で抽出してください。
情報が見つからない場合はnullを設定してください。

抽出する情報：
1. product_name: 商品名（パッケージに書かれている正式名称）
2. manufacturer: 製造者の会社名（「製造者:」「製造元:」の後に記載）
3. seller: 販売者の会社名（「販売者:」「販売元:」の後に記載、製造者と異なる場合のみ）
4. volume: 内容量（例: "100g", "500ml"）
5. ingredients: 原材料名のリスト（配列形式）
6. nutrition: 栄養成分表示
   - energy: エネルギー（例: "100kcal"）
   - protein: タンパク質（例: "5.0g"）
   - fat: 脂質（例: "3.0g"）
   - carbs: 炭水化物（例: "15.0g"）
   - sugar: 糖質（例: "10.0g"）
   - fiber: 食物繊維（例: "2.0g"）
   - salt: 食塩相当量（例: "0.5g"）
7. appeals: 訴求ポイント・特徴のリスト（例: ["無添加", "国産", "低糖質", "高タンパク"]）
8. category: 商品カテゴリ（以下から最も適切なものを1つ選択）
   - "Chocolate": チョコレート、チョコ菓子
   - "Gummy": グミ、ソフトキャンディ
   - "Cookie": クッキー、ビスケット、焼き菓子
   - "Snack": スナック菓子、ポテトチップス、せんべい
   - "Donut": ドーナツ
   - "Jelly": ゼリー、プリン、ムース
   - "Noodle": 麺類、ラーメン、うどん、そば
   - "Supplement": サプリメント、ビタミン剤、健康食品
   - "Beverage": 飲料、ドリンク、ジュース
   - "Protein": プロテイン、プロテインバー
   - "Other": 上記に該当しないもの

必ず以下のJSON形式で回答してください：
` + "```json" + `
{
  "product_name": "商品名",
  "manufacturer": "製造者名",
  "seller": "販売者名",
  "volume": "内容量",
  "ingredients": ["原材料1", "原材料2"],
  "nutrition": {
    "energy": "100kcal",
    "protein": "5.0g",
    "fat": "3.0g",
    "carbs": "15.0g",
    "sugar": "10.0g",
    "fiber": "2.0g",
    "salt": "0.5g"
  },
  "appeals": ["特徴1", "特徴2"],
  "category": "カテゴリ名（英語）"
}
` + "```"

// VisionExtractor reads product data from images through a multimodal
// model. Any failure degrades to the deterministic mock record so the
// enclosing upload never aborts.
type VisionExtractor struct {
	model domain.VisionModel
	debug bool
}

// NewVisionExtractor creates a vision-model extractor. A nil model is
// allowed and behaves as unavailable.
func NewVisionExtractor(model domain.VisionModel, enableDebugLogging bool) *VisionExtractor {
	return &VisionExtractor{model: model, debug: enableDebugLogging}
}

// Extract sends the images plus the instruction template to the model
// and parses its reply. Unavailable model, transport failure and
// malformed replies all yield the mock record.
func (e *VisionExtractor) Extract(ctx context.Context, images []domain.ImageInput) domain.RawExtraction {
	if e.model == nil || !e.model.Available() {
		log.Printf("[VISION] model not configured, using mock data")
		return MockExtraction()
	}
	if len(images) == 0 {
		log.Printf("[VISION] no images supplied, using mock data")
		return MockExtraction()
	}

	reply, err := e.model.Generate(ctx, extractionPrompt, images)
	if err != nil {
		log.Printf("[VISION] model call failed: %v", err)
		return MockExtraction()
	}

	record, err := parseModelResponse(reply)
	if err != nil {
		// Keep the raw reply around for diagnosis; the error itself never
		// reaches the caller.
		log.Printf("[VISION] %v; raw response: %s", err, truncateForLog(reply, 500))
		return MockExtraction()
	}

	if e.debug {
		log.Printf("[VISION] extracted %q (category %s)", record.ProductName, record.Category)
	}
	record.Category = string(NormalizeCategory(record.Category, record.ProductName))
	return record
}

// visionPayload mirrors the JSON shape the prompt mandates. Pointers
// distinguish null from present-but-empty.
type visionPayload struct {
	ProductName  *string           `json:"product_name"`
	Manufacturer *string           `json:"manufacturer"`
	Seller       *string           `json:"seller"`
	Volume       *string           `json:"volume"`
	Ingredients  []string          `json:"ingredients"`
	Nutrition    map[string]string `json:"nutrition"`
	Appeals      []string          `json:"appeals"`
	Category     *string           `json:"category"`
}

// parseModelResponse extracts the JSON object from a free-text model
// reply and coalesces every optional field to an explicit default.
func parseModelResponse(reply string) (domain.RawExtraction, error) {
	jsonStr, ok := extractJSONBlock(reply)
	if !ok {
		return domain.RawExtraction{}, domain.ErrResponseMalformed
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return domain.RawExtraction{}, domain.ErrResponseMalformed
	}

	return domain.RawExtraction{
		ProductName:  stringOr(payload.ProductName, domain.UnknownProductName),
		Manufacturer: stringOr(payload.Manufacturer, domain.UnknownManufacturer),
		Seller:       stringOr(payload.Seller, ""),
		Volume:       stringOr(payload.Volume, domain.UnknownVolume),
		Ingredients:  payload.Ingredients,
		Appeals:      payload.Appeals,
		Nutrition:    nutritionFromMap(payload.Nutrition),
		Category:     stringOr(payload.Category, string(domain.CategoryOther)),
	}, nil
}

// extractJSONBlock looks for a fenced block tagged json, then any
// fenced block, then the first { through the last } in the text.
func extractJSONBlock(text string) (string, bool) {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}
	return "", false
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func nutritionFromMap(m map[string]string) domain.Nutrition {
	return domain.Nutrition{
		Energy:  m["energy"],
		Protein: m["protein"],
		Fat:     m["fat"],
		Carbs:   m["carbs"],
		Sugar:   m["sugar"],
		Fiber:   m["fiber"],
		Salt:    m["salt"],
	}
}

// MockExtraction returns the deterministic record used whenever an
// extraction backend is unavailable or its reply cannot be used. The
// literal values never change between calls.
func MockExtraction() domain.RawExtraction {
	return domain.RawExtraction{
		ProductName:  "Sample Product",
		Manufacturer: "Sample Manufacturer",
		Volume:       "100g",
		Ingredients:  []string{"Ingredient A", "Ingredient B", "Ingredient C"},
		Nutrition: domain.Nutrition{
			Energy:  "100kcal",
			Protein: "5.0g",
			Fat:     "3.0g",
			Carbs:   "15.0g",
			Sugar:   "10.0g",
			Fiber:   "2.0g",
			Salt:    "0.5g",
		},
		Appeals:  []string{"無添加", "国産"},
		Category: string(domain.CategoryOther),
	}
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
