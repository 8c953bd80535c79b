// Package translator maps a provider-agnostic prompt onto a target model's
// request shape. The fidelity policy is explicit: strict mode fails on any
// capability the model lacks, standard mode degrades feature by feature and
// records a diagnostic for every transformation applied.
package translator

import (
	"sort"
	"strings"

	"specwire/internal/capability"
	"specwire/internal/outcome"
	"specwire/internal/spec"
)

// Mode selects the fidelity policy.
type Mode int

const (
	ModeStandard Mode = iota
	ModeStrict
)

// ParseMode maps the wire identifier to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "standard":
		return ModeStandard, nil
	case "strict":
		return ModeStrict, nil
	default:
		return 0, outcome.Errorf(outcome.InvalidInput, "unknown translation mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "standard"
}

// Diagnostic records one degradation applied during standard-mode translation.
type Diagnostic struct {
	Feature string `json:"feature"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the provider-specific request document plus the ordered
// diagnostics describing any degradations applied to produce it.
type Result struct {
	Request     Request      `json:"request"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Request is the destination-specific payload addressed to one endpoint.
type Request struct {
	Endpoint RequestEndpoint   `json:"endpoint"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     Body              `json:"body"`
}

// RequestEndpoint pins down where and how the request is sent.
type RequestEndpoint struct {
	Method   string `json:"method"`
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
}

// Body is the provider request body. Field names follow the superset of the
// supported provider families; omitempty keeps each family's serialisation
// free of the other's fields.
type Body struct {
	Model         string        `json:"model"`
	System        string        `json:"system,omitempty"`
	Messages      []BodyMessage `json:"messages"`
	MaxTokens     *int          `json:"max_tokens,omitempty"`
	Temperature   *float64      `json:"temperature,omitempty"`
	TopP          *float64      `json:"top_p,omitempty"`
	Stop          []string      `json:"stop,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
}

// BodyMessage is a flattened message in the provider body.
type BodyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Translate maps prompt onto the model's request shape under the given mode.
func Translate(prompt *spec.PromptSpec, caps *capability.ModelCapabilities, mode Mode) (*Result, error) {
	if prompt == nil || len(prompt.Messages) == 0 {
		return nil, outcome.New(outcome.InvalidInput, "prompt has no messages")
	}

	missing := missingFeatures(prompt, caps)

	if mode == ModeStrict && len(missing) > 0 {
		return nil, outcome.Errorf(outcome.InvalidInput,
			"model %q does not support required features: %s", caps.ModelID, strings.Join(missing, ", "))
	}

	// A missing feature with no policy row cannot be degraded, so standard
	// mode fails it the same way strict does.
	if unsupported := withoutFallback(missing); len(unsupported) > 0 {
		return nil, outcome.Errorf(outcome.InvalidInput,
			"model %q does not support required features: %s", caps.ModelID, strings.Join(unsupported, ", "))
	}

	// Standard mode: walk the policy table in evaluation order so the
	// diagnostics sequence is reproducible for identical input.
	working := clonePrompt(prompt)
	diagnostics := []Diagnostic{}
	for _, feature := range missing {
		diagnostics = append(diagnostics, fallbacks[feature].apply(working))
	}

	if len(working.Messages) == 0 {
		return nil, outcome.New(outcome.InvalidInput, "prompt has no content left after applying fallbacks")
	}

	request, err := buildRequest(working, caps)
	if err != nil {
		return nil, err
	}

	return &Result{Request: *request, Diagnostics: diagnostics}, nil
}

// missingFeatures computes required \ supported, sorted by feature name for
// deterministic reporting. Evaluation covers input modes first, endpoints
// second. The target endpoint is always part of the required set: blocking
// prompts need chat_completion, streaming prompts need
// streaming_chat_completion — and when streaming is missing its fallback
// lands on the blocking endpoint, so that must exist too.
func missingFeatures(prompt *spec.PromptSpec, caps *capability.ModelCapabilities) []string {
	var missing []string
	if prompt.HasImages() && !caps.InputModes.Images {
		missing = append(missing, featureImages)
	}
	if prompt.Stream {
		if !caps.Supports(capability.StreamingChatCompletion) {
			missing = append(missing, featureStreaming)
			if !caps.Supports(capability.ChatCompletion) {
				missing = append(missing, featureBlocking)
			}
		}
	} else if !caps.Supports(capability.ChatCompletion) {
		missing = append(missing, featureBlocking)
	}
	sort.Strings(missing)
	return missing
}

func buildRequest(prompt *spec.PromptSpec, caps *capability.ModelCapabilities) (*Request, error) {
	target := capability.ChatCompletion
	if prompt.Stream {
		target = capability.StreamingChatCompletion
	}

	endpoint, ok := caps.Endpoint(target)
	if !ok {
		// Reachable only when strict-mode gating and fallback policies
		// both failed to cover a capability.
		return nil, outcome.Errorf(outcome.InternalError, "no endpoint resolved for capability %q", target)
	}

	body := buildBody(prompt, caps)

	headers := make(map[string]string, len(caps.Headers))
	for k, v := range caps.Headers {
		headers[k] = v
	}

	return &Request{
		Endpoint: RequestEndpoint{
			Method:   endpoint.Method,
			URL:      joinURL(caps.BaseURL, endpoint.Path),
			Protocol: endpoint.Protocol,
		},
		Headers: headers,
		Body:    *body,
	}, nil
}

// buildBody maps prompt fields to the provider family's field names. The
// anthropic family hoists system messages into a top-level field and uses
// stop_sequences; everything else follows the openai chat shape.
func buildBody(prompt *spec.PromptSpec, caps *capability.ModelCapabilities) *Body {
	body := &Body{
		Model:       caps.ModelID,
		MaxTokens:   prompt.MaxTokens,
		Temperature: prompt.Temperature,
		TopP:        prompt.TopP,
		Stream:      prompt.Stream,
	}

	anthropic := isAnthropicFamily(caps.Family)
	if anthropic {
		body.StopSequences = prompt.Stop
	} else {
		body.Stop = prompt.Stop
	}

	messages := make([]BodyMessage, 0, len(prompt.Messages))
	for _, msg := range prompt.Messages {
		text := msg.Text()
		if anthropic && msg.Role == spec.RoleSystem {
			if body.System != "" {
				body.System += "\n"
			}
			body.System += text
			continue
		}
		messages = append(messages, BodyMessage{Role: msg.Role, Content: text})
	}
	body.Messages = messages

	return body
}

func isAnthropicFamily(family string) bool {
	switch family {
	case "claude", "anthropic":
		return true
	default:
		return false
	}
}

func joinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func clonePrompt(prompt *spec.PromptSpec) *spec.PromptSpec {
	clone := *prompt
	clone.Messages = make([]spec.Message, len(prompt.Messages))
	for i, msg := range prompt.Messages {
		clone.Messages[i] = msg
		clone.Messages[i].Parts = append([]spec.Part(nil), msg.Parts...)
	}
	clone.Stop = append([]string(nil), prompt.Stop...)
	return &clone
}
