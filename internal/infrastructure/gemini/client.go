package gemini

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/packlens/backend/internal/domain"
)

const defaultModel = "gemini-2.0-flash"

// Client talks to the Gemini API as the vision-model backend. The
// underlying SDK client is built lazily on the first call so that a
// missing credential never blocks startup.
type Client struct {
	apiKey    string
	modelName string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewClient creates a Gemini vision client. An empty API key yields an
// unavailable client; callers fall back to mock extraction.
func NewClient(apiKey, modelName string) *Client {
	if modelName == "" {
		modelName = defaultModel
	}
	return &Client{apiKey: apiKey, modelName: modelName}
}

// Available reports whether a credential is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Generate sends the images followed by the instruction prompt and
// returns the model's textual reply.
func (c *Client) Generate(ctx context.Context, prompt string, images []domain.ImageInput) (string, error) {
	if !c.Available() {
		return "", domain.ErrExtractionUnavailable
	}

	c.once.Do(func() {
		c.client, c.initErr = genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	})
	if c.initErr != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, c.initErr)
	}

	model := c.client.GenerativeModel(c.modelName)

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.ImageData(imageFormat(img.Filename), img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// Close releases the SDK client if it was ever built.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// imageFormat maps a filename extension onto the format label the SDK
// expects; unknown extensions are treated as JPEG.
func imageFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}

var _ domain.VisionModel = (*Client)(nil)
