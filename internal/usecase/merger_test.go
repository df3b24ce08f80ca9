package usecase

import (
	"reflect"
	"testing"

	"github.com/packlens/backend/internal/domain"
)

func TestMerge(t *testing.T) {
	t.Run("empty input yields the mock record", func(t *testing.T) {
		got := Merge(nil)
		if !reflect.DeepEqual(got, MockExtraction()) {
			t.Errorf("Merge(nil) = %+v, want mock record", got)
		}
	})

	t.Run("single record passes through unchanged", func(t *testing.T) {
		record := domain.RawExtraction{
			ProductName: "抹茶クッキー",
			Volume:      "120g",
			Category:    "Cookie",
		}
		got := Merge([]domain.RawExtraction{record})
		if !reflect.DeepEqual(got, record) {
			t.Errorf("Merge() = %+v, want %+v", got, record)
		}
	})

	t.Run("merging a record with itself changes nothing", func(t *testing.T) {
		record := domain.RawExtraction{
			ProductName:  "抹茶クッキー",
			Manufacturer: "テスト製菓株式会社",
			Volume:       "120g",
			Ingredients:  []string{"小麦粉", "抹茶"},
			Appeals:      []string{"国産"},
			Category:     "Cookie",
		}
		got := Merge([]domain.RawExtraction{record, record})
		if !reflect.DeepEqual(got, record) {
			t.Errorf("Merge([x,x]) = %+v, want %+v", got, record)
		}
	})

	t.Run("scalars keep the first non-empty value", func(t *testing.T) {
		front := domain.RawExtraction{ProductName: "表面の商品名", Category: "Other"}
		back := domain.RawExtraction{
			ProductName:  "裏面の別名",
			Manufacturer: "裏面株式会社",
			Volume:       "85g",
			Category:     "Other",
		}

		got := Merge([]domain.RawExtraction{front, back})

		if got.ProductName != "表面の商品名" {
			t.Errorf("ProductName = %q, want the first record's name", got.ProductName)
		}
		if got.Manufacturer != "裏面株式会社" {
			t.Errorf("Manufacturer = %q, want the second record's value", got.Manufacturer)
		}
		if got.Volume != "85g" {
			t.Errorf("Volume = %q, want 85g", got.Volume)
		}
	})

	t.Run("category only advances away from Other", func(t *testing.T) {
		records := []domain.RawExtraction{
			{Category: "Other"},
			{Category: "Gummy"},
			{Category: "Cookie"},
		}
		got := Merge(records)
		if got.Category != "Gummy" {
			t.Errorf("Category = %q, want Gummy (first non-Other wins)", got.Category)
		}
	})

	t.Run("lists union preserving first-seen order", func(t *testing.T) {
		records := []domain.RawExtraction{
			{Ingredients: []string{"小麦粉", "砂糖"}, Appeals: []string{"無添加"}},
			{Ingredients: []string{"砂糖", "食塩"}, Appeals: []string{"国産", "無添加"}},
		}

		got := Merge(records)

		wantIngredients := []string{"小麦粉", "砂糖", "食塩"}
		if !reflect.DeepEqual(got.Ingredients, wantIngredients) {
			t.Errorf("Ingredients = %v, want %v", got.Ingredients, wantIngredients)
		}
		wantAppeals := []string{"無添加", "国産"}
		if !reflect.DeepEqual(got.Appeals, wantAppeals) {
			t.Errorf("Appeals = %v, want %v", got.Appeals, wantAppeals)
		}
	})

	t.Run("nutrition merges per key", func(t *testing.T) {
		records := []domain.RawExtraction{
			{Nutrition: domain.Nutrition{Energy: "200kcal"}},
			{Nutrition: domain.Nutrition{Energy: "999kcal", Protein: "8.0g"}},
		}

		got := Merge(records)

		if got.Nutrition.Energy != "200kcal" {
			t.Errorf("Energy = %q, want the first record's value", got.Nutrition.Energy)
		}
		if got.Nutrition.Protein != "8.0g" {
			t.Errorf("Protein = %q, want 8.0g", got.Nutrition.Protein)
		}
	})

	t.Run("all-empty records get unknown defaults", func(t *testing.T) {
		got := Merge([]domain.RawExtraction{{}, {}})

		if got.ProductName != domain.UnknownProductName {
			t.Errorf("ProductName = %q, want %q", got.ProductName, domain.UnknownProductName)
		}
		if got.Manufacturer != domain.UnknownManufacturer {
			t.Errorf("Manufacturer = %q, want %q", got.Manufacturer, domain.UnknownManufacturer)
		}
		if got.Volume != domain.UnknownVolume {
			t.Errorf("Volume = %q, want %q", got.Volume, domain.UnknownVolume)
		}
		if got.Category != string(domain.CategoryOther) {
			t.Errorf("Category = %q, want Other", got.Category)
		}
	})
}
