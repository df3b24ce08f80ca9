package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/packlens/backend/internal/domain"
)

// Engine wraps a Tesseract client as the local text-recognition
// backend. The underlying client is expensive to build and not safe for
// concurrent use, so one handle is constructed lazily on first use and
// serialized behind a mutex.
type Engine struct {
	langs []string

	mu     sync.Mutex
	client *gosseract.Client
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide recognition engine configured for
// Japanese and English package text.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = NewEngine("jpn", "eng")
	})
	return defaultEngine
}

// NewEngine creates a recognition engine for the given trained
// languages. The Tesseract client is not built until the first
// Recognize call.
func NewEngine(langs ...string) *Engine {
	return &Engine{langs: langs}
}

// Available reports whether the engine can be used.
func (e *Engine) Available() bool {
	return true
}

// Recognize runs text recognition over one encoded image and returns
// the detected text regions in reading order.
func (e *Engine) Recognize(ctx context.Context, image []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	client, err := e.ensureClient()
	if err != nil {
		return nil, err
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		fragments := make([]string, 0, len(boxes))
		for _, box := range boxes {
			if text := strings.TrimSpace(box.Word); text != "" {
				fragments = append(fragments, text)
			}
		}
		return fragments, nil
	}

	// Line segmentation unavailable; fall back to plain text split on
	// newlines.
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
	}

	var fragments []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fragments = append(fragments, line)
		}
	}
	return fragments, nil
}

// ensureClient builds the shared Tesseract handle on first use. Callers
// must hold e.mu.
func (e *Engine) ensureClient() (*gosseract.Client, error) {
	if e.client != nil {
		return e.client, nil
	}

	log.Printf("[OCR] initializing recognition engine (languages: %s)", strings.Join(e.langs, ","))
	client := gosseract.NewClient()
	if len(e.langs) > 0 {
		if err := client.SetLanguage(e.langs...); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
		}
	}

	e.client = client
	return e.client, nil
}

// Close releases the Tesseract handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
