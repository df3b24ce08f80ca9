package domain

import "errors"

var (
	// ErrExtractionUnavailable is returned when the recognition engine or
	// vision model client is not installed or not configured
	ErrExtractionUnavailable = errors.New("extraction backend unavailable")

	// ErrResponseMalformed is returned when a vision-model reply cannot be
	// parsed as JSON
	ErrResponseMalformed = errors.New("model response is not valid JSON")

	// ErrSearchProvider is returned when the search provider request itself
	// fails; distinct from a legitimate empty result
	ErrSearchProvider = errors.New("search provider request failed")

	// ErrProductNotFound is returned when a product id does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrImageNotFound is returned when an image id does not exist for the
	// given product
	ErrImageNotFound = errors.New("product image not found")
)
