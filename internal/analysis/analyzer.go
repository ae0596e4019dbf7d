// Package analysis sends an image to an external multimodal model and turns
// its answer into a Result.
package analysis

import "context"

// Analyzer is the narrow port to the external service: image bytes and their
// MIME type in, a parsed Result or an error out. Implementations make exactly
// one outbound call per invocation and never cache.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Result, error)
}

// AnalyzerFunc adapts a plain function to Analyzer.
type AnalyzerFunc func(ctx context.Context, imageData []byte, mimeType string) (*Result, error)

func (f AnalyzerFunc) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Result, error) {
	return f(ctx, imageData, mimeType)
}
