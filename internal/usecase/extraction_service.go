package usecase

import (
	"context"
	"log"

	"github.com/packlens/backend/internal/domain"
)

// Extraction strategies. The vision strategy sends the whole image
// batch to the model in one call; the pattern strategy recognizes text
// per image and runs the regex cascade.
const (
	StrategyVision  = "vision"
	StrategyPattern = "pattern"
)

// ExtractionConfig holds configuration for the extraction service.
type ExtractionConfig struct {
	Strategy           string
	EnableDebugLogging bool
}

// ExtractionService turns uploaded images into one normalized product
// record. It never returns an error: every failure path degrades to a
// fully-shaped default record so the upload itself cannot fail here.
type ExtractionService struct {
	engine   domain.RecognitionEngine
	vision   *VisionExtractor
	strategy string
	debug    bool
}

// NewExtractionService creates an extraction service. The recognition
// engine may be nil when only the vision strategy is configured.
func NewExtractionService(engine domain.RecognitionEngine, vision *VisionExtractor, config ExtractionConfig) *ExtractionService {
	strategy := config.Strategy
	if strategy == "" {
		strategy = StrategyVision
	}
	return &ExtractionService{
		engine:   engine,
		vision:   vision,
		strategy: strategy,
		debug:    config.EnableDebugLogging,
	}
}

// ExtractProduct produces one raw record from the uploaded images,
// with the category already normalized.
func (s *ExtractionService) ExtractProduct(ctx context.Context, images []domain.ImageInput) domain.RawExtraction {
	if s.strategy == StrategyPattern && s.engine != nil && s.engine.Available() {
		return s.extractWithPatterns(ctx, images)
	}
	return s.vision.Extract(ctx, images)
}

// extractWithPatterns recognizes each image separately, extracts fields
// from the fragments and merges the per-image records.
func (s *ExtractionService) extractWithPatterns(ctx context.Context, images []domain.ImageInput) domain.RawExtraction {
	records := make([]domain.RawExtraction, 0, len(images))

	for _, img := range images {
		fragments, err := s.engine.Recognize(ctx, img.Data)
		if err != nil {
			log.Printf("[EXTRACT] recognition failed for %s: %v", img.Filename, err)
			// An unreadable image contributes nothing; later images can
			// still fill every field.
			records = append(records, domain.RawExtraction{Category: string(domain.CategoryOther)})
			continue
		}

		record := ExtractFields(fragments)
		record.Category = string(NormalizeCategory(record.Category, record.ProductName))
		if s.debug {
			log.Printf("[EXTRACT] %s: %d fragments, name %q", img.Filename, len(fragments), record.ProductName)
		}
		records = append(records, record)
	}

	merged := Merge(records)
	merged.Category = string(NormalizeCategory(merged.Category, merged.ProductName))
	return merged
}
