package translator

import (
	"fmt"

	"specwire/internal/spec"
)

// Feature names as reported in capability-mismatch errors and diagnostics.
const (
	featureImages    = "images"
	featureBlocking  = "chat_completion"
	featureStreaming = "streaming_chat_completion"
)

// Diagnostic codes.
const (
	codeDrop     = "drop"
	codeFallback = "fallback"
)

// fallback is one row of the standard-mode degradation policy: a pure
// transform of the working prompt plus the diagnostic describing it. The
// table is separate from the mapping mechanics so new features slot in
// without touching the translation algorithm.
type fallback struct {
	apply func(*spec.PromptSpec) Diagnostic
}

var fallbacks = map[string]fallback{
	featureImages:    {apply: dropImageContent},
	featureStreaming: {apply: fallbackToBlocking},
}

// withoutFallback returns the missing features no policy row can degrade.
// A missing chat_completion endpoint has no fallback: there is nothing to
// downgrade a blocking request to.
func withoutFallback(features []string) []string {
	var out []string
	for _, feature := range features {
		if _, ok := fallbacks[feature]; !ok {
			out = append(out, feature)
		}
	}
	return out
}

// dropImageContent removes image parts from every message, deleting messages
// left with no content at all.
func dropImageContent(prompt *spec.PromptSpec) Diagnostic {
	dropped := 0
	messages := prompt.Messages[:0]
	for _, msg := range prompt.Messages {
		parts := msg.Parts[:0]
		for _, part := range msg.Parts {
			if part.Type == spec.PartImage {
				dropped++
				continue
			}
			parts = append(parts, part)
		}
		msg.Parts = parts
		if len(msg.Parts) > 0 {
			messages = append(messages, msg)
		}
	}
	prompt.Messages = messages

	return Diagnostic{
		Feature: featureImages,
		Code:    codeDrop,
		Message: fmt.Sprintf("model does not accept image input; dropped %d image part(s)", dropped),
	}
}

// fallbackToBlocking rewrites a streaming request onto the blocking chat
// completion endpoint.
func fallbackToBlocking(prompt *spec.PromptSpec) Diagnostic {
	prompt.Stream = false
	return Diagnostic{
		Feature: featureStreaming,
		Code:    codeFallback,
		Message: "model does not support streaming; falling back to chat_completion",
	}
}
