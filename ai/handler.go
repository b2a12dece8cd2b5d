// Package ai bridges the specialist pool to a hosted model. A
// ModelHandler swaps in for any static builtin when an API key is
// configured, keeping the rest of the pipeline unchanged.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"council-lab/domain/specialist"
)

const maxTokens = 1024

// systemPrompts flavor the model per specialist identity.
var systemPrompts = map[specialist.ID]string{
	specialist.Code:     "You are the code specialist of a coordination pipeline. Answer with concrete, working code suggestions.",
	specialist.Design:   "You are the design specialist of a coordination pipeline. Answer with practical visual and UX guidance.",
	specialist.Writing:  "You are the writing specialist of a coordination pipeline. Answer with clear, structured prose.",
	specialist.Analysis: "You are the analysis specialist of a coordination pipeline. Answer with measured, data-driven advice.",
}

type ModelHandler struct {
	id     specialist.ID
	client anthropic.Client
	model  anthropic.Model
	log    *slog.Logger
}

// NewModelHandler builds a model-backed handler for one identity.
func NewModelHandler(id specialist.ID, apiKey string, model anthropic.Model, log *slog.Logger) *ModelHandler {
	return &ModelHandler{
		id:     id,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

func (h *ModelHandler) ID() specialist.ID {
	return h.id
}

// Respond performs a single completion call. The dispatcher's per-call
// timeout travels in ctx; the SDK aborts the request when it fires.
func (h *ModelHandler) Respond(ctx context.Context, req specialist.Request) (specialist.Response, error) {
	prompt := req.MessageText
	if req.Context.Rationale != "" {
		prompt = fmt.Sprintf("%s\n\nCoordinator note: %s", req.MessageText, req.Context.Rationale)
	}

	resp, err := h.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     h.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompts[h.id]},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return specialist.Response{}, fmt.Errorf("model call for %s: %w", h.id, err)
	}

	var content string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += variant.Text
		}
	}

	h.log.Debug("model response",
		"specialist", h.id,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	return specialist.Response{
		Content: content,
		Metadata: map[string]any{
			"type":  "model",
			"model": string(h.model),
		},
	}, nil
}
