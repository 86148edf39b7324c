package gen

import (
	"context"
	"encoding/base64"
	"fmt"
)

// ImageRequest describes one image generation call.
type ImageRequest struct {
	// Model is the image model identifier.
	Model string
	// Prompt is the image prompt.
	Prompt string
}

// ImageResult is the produced image.
type ImageResult struct {
	// Base64Data is the encoded image payload.
	Base64Data string
	// MimeType is the payload's media type.
	MimeType string
}

// ImageGenerator produces images for visual deliverables.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// PlaceholderImages is an ImageGenerator that returns a deterministic
// SVG placeholder. It stands in when no image backend is configured;
// image costs are still tracked by the caller.
type PlaceholderImages struct{}

// GenerateImage returns a labeled placeholder image.
func (PlaceholderImages) GenerateImage(_ context.Context, req ImageRequest) (*ImageResult, error) {
	label := req.Prompt
	if runes := []rune(label); len(runes) > 60 {
		label = string(runes[:60])
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="640" height="360"><rect width="100%%" height="100%%" fill="#1e293b"/><text x="20" y="180" fill="#e2e8f0" font-family="sans-serif" font-size="14">%s</text></svg>`, label)
	return &ImageResult{
		Base64Data: base64.StdEncoding.EncodeToString([]byte(svg)),
		MimeType:   "image/svg+xml",
	}, nil
}
