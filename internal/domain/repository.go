package domain

import "context"

// RecognitionEngine defines the interface for the local text-recognition
// backend. Recognize returns the detected text regions in reading order.
type RecognitionEngine interface {
	Available() bool
	Recognize(ctx context.Context, image []byte) ([]string, error)
}

// VisionModel defines the interface for a multimodal model that reads
// product images and answers with free text.
type VisionModel interface {
	Available() bool
	Generate(ctx context.Context, prompt string, images []ImageInput) (string, error)
}

// SearchClient defines the interface for issuing web searches and
// collecting result snippets.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchSnippet, error)
}

// ProductRepository defines the interface for product persistence.
type ProductRepository interface {
	Add(ctx context.Context, p *Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, c Category) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	AddImage(ctx context.Context, img *ProductImage) (int64, error)
	ListImages(ctx context.Context, productID int64) ([]ProductImage, error)
	DeleteImage(ctx context.Context, imageID int64) error
	ReorderImages(ctx context.Context, productID int64, imageIDs []int64) error
}
