package translator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specwire/internal/capability"
	"specwire/internal/outcome"
	"specwire/internal/spec"
)

func fullCaps() *capability.ModelCapabilities {
	return &capability.ModelCapabilities{
		ModelID: "gpt-x",
		Family:  "gpt",
		BaseURL: "https://api.acme.dev/v1",
		Headers: map[string]string{"Authorization": "env:ACME_API_KEY"},
		Endpoints: map[capability.Capability]spec.Endpoint{
			capability.ChatCompletion:          {Method: "POST", Path: "/chat/completions", Protocol: "http"},
			capability.StreamingChatCompletion: {Method: "POST", Path: "/chat/completions", Protocol: "sse"},
		},
		InputModes: spec.InputModes{Messages: true, Images: true},
	}
}

func textOnlyCaps() *capability.ModelCapabilities {
	caps := fullCaps()
	caps.InputModes.Images = false
	delete(caps.Endpoints, capability.StreamingChatCompletion)
	return caps
}

func textPrompt() *spec.PromptSpec {
	temp := 0.3
	maxTokens := 256
	return &spec.PromptSpec{
		Messages: []spec.Message{
			{Role: spec.RoleSystem, Parts: []spec.Part{{Type: spec.PartText, Text: "Be brief."}}},
			{Role: spec.RoleUser, Parts: []spec.Part{{Type: spec.PartText, Text: "Hello"}}},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Stop:        []string{"END"},
	}
}

func imagePrompt() *spec.PromptSpec {
	return &spec.PromptSpec{
		Messages: []spec.Message{
			{Role: spec.RoleUser, Parts: []spec.Part{
				{Type: spec.PartText, Text: "Describe this"},
				{Type: spec.PartImage, Source: "https://example.com/cat.png"},
			}},
		},
	}
}

func TestTranslate_FullSupportBothModes(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeStandard, ModeStrict} {
		result, err := Translate(textPrompt(), fullCaps(), mode)
		require.NoError(t, err, "mode %s", mode)
		assert.Empty(t, result.Diagnostics)
		assert.Equal(t, "POST", result.Request.Endpoint.Method)
		assert.Equal(t, "https://api.acme.dev/v1/chat/completions", result.Request.Endpoint.URL)
		assert.Equal(t, "http", result.Request.Endpoint.Protocol)
		assert.Equal(t, "gpt-x", result.Request.Body.Model)
		require.Len(t, result.Request.Body.Messages, 2)
		assert.Equal(t, []string{"END"}, result.Request.Body.Stop)
		assert.Empty(t, result.Request.Body.StopSequences)
	}
}

func TestTranslate_StreamSelectsStreamingEndpoint(t *testing.T) {
	t.Parallel()

	prompt := textPrompt()
	prompt.Stream = true

	result, err := Translate(prompt, fullCaps(), ModeStrict)
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, "sse", result.Request.Endpoint.Protocol)
	assert.True(t, result.Request.Body.Stream)
}

func streamingOnlyCaps() *capability.ModelCapabilities {
	caps := fullCaps()
	delete(caps.Endpoints, capability.ChatCompletion)
	return caps
}

func TestTranslate_BlockingEndpointMissing(t *testing.T) {
	t.Parallel()

	// No fallback exists for a missing chat_completion endpoint, so both
	// modes report a capability mismatch rather than an engine failure.
	for _, mode := range []Mode{ModeStandard, ModeStrict} {
		_, err := Translate(textPrompt(), streamingOnlyCaps(), mode)
		require.Error(t, err, "mode %s", mode)
		assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err), "mode %s", mode)
		assert.Contains(t, err.Error(), "required features: chat_completion")
	}
}

func TestTranslate_NoEndpointsNamesFallbackTarget(t *testing.T) {
	t.Parallel()

	caps := fullCaps()
	caps.Endpoints = nil

	prompt := textPrompt()
	prompt.Stream = true

	// The streaming fallback lands on the blocking endpoint, so a model
	// with neither endpoint is missing both features.
	_, err := Translate(prompt, caps, ModeStrict)
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
	assert.Contains(t, err.Error(), "chat_completion, streaming_chat_completion")

	_, err = Translate(prompt, caps, ModeStandard)
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
}

func TestTranslate_StrictFailsOnMissingFeature(t *testing.T) {
	t.Parallel()

	_, err := Translate(imagePrompt(), textOnlyCaps(), ModeStrict)
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
	assert.Contains(t, err.Error(), "images")
}

func TestTranslate_StrictNamesAllMissingFeaturesSorted(t *testing.T) {
	t.Parallel()

	prompt := imagePrompt()
	prompt.Stream = true

	_, err := Translate(prompt, textOnlyCaps(), ModeStrict)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images, streaming_chat_completion")
}

func TestTranslate_StandardDropsImagesWithDiagnostic(t *testing.T) {
	t.Parallel()

	result, err := Translate(imagePrompt(), textOnlyCaps(), ModeStandard)
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	diag := result.Diagnostics[0]
	assert.Equal(t, "images", diag.Feature)
	assert.Equal(t, "drop", diag.Code)

	require.Len(t, result.Request.Body.Messages, 1)
	assert.Equal(t, "Describe this", result.Request.Body.Messages[0].Content)
}

func TestTranslate_StandardStreamFallbackWithDiagnostic(t *testing.T) {
	t.Parallel()

	prompt := textPrompt()
	prompt.Stream = true

	result, err := Translate(prompt, textOnlyCaps(), ModeStandard)
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "streaming_chat_completion", result.Diagnostics[0].Feature)
	assert.Equal(t, "fallback", result.Diagnostics[0].Code)
	assert.False(t, result.Request.Body.Stream)
	assert.Equal(t, "http", result.Request.Endpoint.Protocol)
}

func TestTranslate_StandardDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	prompt := imagePrompt()
	prompt.Stream = true

	_, err := Translate(prompt, textOnlyCaps(), ModeStandard)
	require.NoError(t, err)
	assert.True(t, prompt.Stream, "caller's prompt must stay untouched")
	assert.True(t, prompt.HasImages())
}

func TestTranslate_ImageOnlyPromptCollapses(t *testing.T) {
	t.Parallel()

	prompt := &spec.PromptSpec{
		Messages: []spec.Message{
			{Role: spec.RoleUser, Parts: []spec.Part{{Type: spec.PartImage, Source: "https://example.com/a.png"}}},
		},
	}

	_, err := Translate(prompt, textOnlyCaps(), ModeStandard)
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
}

func TestTranslate_AnthropicFamilyMapping(t *testing.T) {
	t.Parallel()

	caps := fullCaps()
	caps.ModelID = "claude-3-sonnet"
	caps.Family = "claude"

	result, err := Translate(textPrompt(), caps, ModeStandard)
	require.NoError(t, err)
	body := result.Request.Body
	assert.Equal(t, "Be brief.", body.System, "system message hoisted to top-level field")
	require.Len(t, body.Messages, 1)
	assert.Equal(t, spec.RoleUser, body.Messages[0].Role)
	assert.Equal(t, []string{"END"}, body.StopSequences)
	assert.Empty(t, body.Stop)
}

func TestTranslate_Deterministic(t *testing.T) {
	t.Parallel()

	prompt := imagePrompt()
	prompt.Stream = true

	first, err := Translate(prompt, textOnlyCaps(), ModeStandard)
	require.NoError(t, err)
	second, err := Translate(prompt, textOnlyCaps(), ModeStandard)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "repeated translation must be byte-identical")

	// Diagnostics keep evaluation order: input modes before endpoints.
	require.Len(t, first.Diagnostics, 2)
	assert.Equal(t, "images", first.Diagnostics[0].Feature)
	assert.Equal(t, "streaming_chat_completion", first.Diagnostics[1].Feature)
}

func TestTranslate_EmptyPrompt(t *testing.T) {
	t.Parallel()

	_, err := Translate(&spec.PromptSpec{}, fullCaps(), ModeStandard)
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseMode("strict")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, mode)

	_, err = ParseMode("loose")
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
}
