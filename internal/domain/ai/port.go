package ai

import "context"

// Describer turns a picture into a plain-text description using a multimodal model.
type Describer interface {
	Describe(ctx context.Context, img Image, prompt string) (string, error)
}
