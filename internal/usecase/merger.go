package usecase

import "github.com/packlens/backend/internal/domain"

// Merge reconciles per-image extraction results, in acquisition order,
// into one record. Scalars keep the first non-empty value, the category
// only advances away from Other, and list fields accumulate by
// order-preserving union. An empty input yields the mock record and a
// single record passes through unchanged.
func Merge(records []domain.RawExtraction) domain.RawExtraction {
	if len(records) == 0 {
		return MockExtraction()
	}
	if len(records) == 1 {
		return records[0]
	}

	merged := domain.RawExtraction{Category: string(domain.CategoryOther)}
	seenIngredients := make(map[string]bool)
	seenAppeals := make(map[string]bool)

	for _, r := range records {
		if merged.ProductName == "" {
			merged.ProductName = r.ProductName
		}
		if merged.Manufacturer == "" {
			merged.Manufacturer = r.Manufacturer
		}
		if merged.Seller == "" {
			merged.Seller = r.Seller
		}
		if merged.Volume == "" {
			merged.Volume = r.Volume
		}
		if merged.Category == string(domain.CategoryOther) && r.Category != "" && r.Category != string(domain.CategoryOther) {
			merged.Category = r.Category
		}

		for _, ing := range r.Ingredients {
			if ing != "" && !seenIngredients[ing] {
				seenIngredients[ing] = true
				merged.Ingredients = append(merged.Ingredients, ing)
			}
		}
		for _, appeal := range r.Appeals {
			if appeal != "" && !seenAppeals[appeal] {
				seenAppeals[appeal] = true
				merged.Appeals = append(merged.Appeals, appeal)
			}
		}

		mergeNutrition(&merged.Nutrition, r.Nutrition)
	}

	if merged.ProductName == "" {
		merged.ProductName = domain.UnknownProductName
	}
	if merged.Manufacturer == "" {
		merged.Manufacturer = domain.UnknownManufacturer
	}
	if merged.Volume == "" {
		merged.Volume = domain.UnknownVolume
	}

	return merged
}

// mergeNutrition keeps the first non-empty value per key.
func mergeNutrition(dst *domain.Nutrition, src domain.Nutrition) {
	if dst.Energy == "" {
		dst.Energy = src.Energy
	}
	if dst.Protein == "" {
		dst.Protein = src.Protein
	}
	if dst.Fat == "" {
		dst.Fat = src.Fat
	}
	if dst.Carbs == "" {
		dst.Carbs = src.Carbs
	}
	if dst.Sugar == "" {
		dst.Sugar = src.Sugar
	}
	if dst.Fiber == "" {
		dst.Fiber = src.Fiber
	}
	if dst.Salt == "" {
		dst.Salt = src.Salt
	}
}
