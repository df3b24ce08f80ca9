package domain

import (
	"strconv"
	"strings"
	"time"
)

// Default field values used when extraction cannot determine a field.
const (
	UnknownProductName  = "Unknown Product"
	UnknownManufacturer = "Unknown Manufacturer"
	UnknownVolume       = "Unknown"
)

// Nutrition holds the nutrition facts panel values as printed on the
// package (e.g. "100kcal", "5.0g"). Empty string means the value was
// not found.
type Nutrition struct {
	Energy  string `json:"energy,omitempty"`
	Protein string `json:"protein,omitempty"`
	Fat     string `json:"fat,omitempty"`
	Carbs   string `json:"carbs,omitempty"`
	Sugar   string `json:"sugar,omitempty"`
	Fiber   string `json:"fiber,omitempty"`
	Salt    string `json:"salt,omitempty"`
}

// IsZero reports whether no nutrition value is set.
func (n Nutrition) IsZero() bool {
	return n == Nutrition{}
}

// RawExtraction is the per-image extraction result before merging.
// Category may be non-canonical until normalization runs.
type RawExtraction struct {
	ProductName  string    `json:"product_name"`
	Manufacturer string    `json:"manufacturer"`
	Seller       string    `json:"seller,omitempty"`
	Volume       string    `json:"volume"`
	Ingredients  []string  `json:"ingredients"`
	Appeals      []string  `json:"appeals"`
	Nutrition    Nutrition `json:"nutrition"`
	Category     string    `json:"category"`
}

// Product is the boundary-facing record handed to persistence and
// returned from the API.
type Product struct {
	ID               int64     `json:"id"`
	ProductName      string    `json:"product_name"`
	Manufacturer     string    `json:"manufacturer"`
	Seller           string    `json:"seller,omitempty"`
	Volume           string    `json:"volume"`
	Ingredients      []string  `json:"ingredients"`
	Appeals          []string  `json:"appeals"`
	Nutrition        Nutrition `json:"nutrition"`
	Category         Category  `json:"category"`
	PriceInfo        string    `json:"price_info,omitempty"`
	PriceTaxExcluded *string   `json:"price_tax_excluded"`
	ProductURL       *string   `json:"product_url"`
	ImagePath        string    `json:"image_path,omitempty"`
	ImagePaths       []string  `json:"image_paths,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// ProductImage is one stored image belonging to a product. The primary
// image is the one shown in listings.
type ProductImage struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	ImagePath    string `json:"image_path"`
	IsPrimary    bool   `json:"is_primary"`
	DisplayOrder int    `json:"display_order"`
}

// ImageInput is one uploaded image buffer handed to an extractor.
type ImageInput struct {
	Filename string
	Data     []byte
}

// SearchSnippet is one search-engine result: concatenated title and
// body text plus the resolved source URL. Consumed once, never stored.
type SearchSnippet struct {
	Title string
	Body  string
	URL   string
}

// Text returns the title and body joined for pattern mining.
func (s SearchSnippet) Text() string {
	return strings.TrimSpace(s.Title + " " + s.Body)
}

// PriceEstimate is the arithmetic mean of accepted price candidates.
// Only its formatted string form crosses the API boundary.
type PriceEstimate struct {
	Mean        int
	TaxExcluded bool
	SampleCount int
}

// String formats the estimate the way the API reports prices.
func (p PriceEstimate) String() string {
	if p.TaxExcluded {
		return strconv.Itoa(p.Mean) + "円(税抜)"
	}
	return strconv.Itoa(p.Mean) + "円"
}
