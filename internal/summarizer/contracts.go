package summarizer

import (
	"context"

	"github.com/dshalev/slide-explainer/constants"
)

// Request is one slide's text plus the rendering options chosen at upload.
type Request struct {
	SlideText string
	Style     constants.SummaryStyle
	Language  constants.Language
}

// Summarizer is the interface the worker depends on.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}
