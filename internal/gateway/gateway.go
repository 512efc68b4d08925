// Package gateway wraps calls to an external generative model service.
// The rest of the pipeline depends only on the Gateway capability interface
// ("given a prompt and optionally an image, return free text"), so any
// backend implementing it is substitutable.
package gateway

import (
	"context"

	"drawlens/internal/match"
)

// Model describes one model advertised by the backend.
type Model struct {
	Name string `json:"name"`
}

// Gateway is the capability interface for the external model service.
type Gateway interface {
	// ListModels returns the models the backend advertises. It fails soft:
	// transport errors are treated as "no models" rather than propagated, so
	// callers can uniformly apply the fallback policy.
	ListModels(ctx context.Context) []Model

	// IsUsable reports whether at least one advertised model matches a
	// recognized vision or text family.
	IsUsable(ctx context.Context) bool

	// Generate produces text from the named model for the given prompt.
	// Images, when present, are base64-encoded attachments for vision models.
	// Unlike ListModels, errors are surfaced so the caller can fall back.
	Generate(ctx context.Context, model, prompt string, images ...string) (string, error)
}

// visionFamilies are name tokens of model families that accept image input.
var visionFamilies = []string{"llava", "bakllava", "moondream", "llama3.2-vision", "minicpm"}

// textFamilies are recognized text-model families in preference order, most
// preferred first. Selection is a linear scan, not a scoring system:
// correctness only needs "most capable available family first".
var textFamilies = []string{"llama3", "llama2", "mistral", "gemma", "phi", "qwen"}

// SelectVisionModel returns the first model whose name contains a
// vision-capable family token.
func SelectVisionModel(models []Model) (Model, bool) {
	for _, m := range models {
		if match.Contains(m.Name, visionFamilies) {
			return m, true
		}
	}
	return Model{}, false
}

// SelectTextModel returns the first model matching a recognized text family,
// evaluated in family preference order.
func SelectTextModel(models []Model) (Model, bool) {
	for _, family := range textFamilies {
		for _, m := range models {
			if match.Contains(m.Name, []string{family}) {
				return m, true
			}
		}
	}
	return Model{}, false
}

// usable reports whether any model matches a recognized vision or text family.
func usable(models []Model) bool {
	if _, ok := SelectVisionModel(models); ok {
		return true
	}
	_, ok := SelectTextModel(models)
	return ok
}
