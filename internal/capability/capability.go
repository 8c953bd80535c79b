// Package capability resolves a model's declared capability surface from a
// provider spec. Capabilities are a closed set so fallback logic over them
// can be checked for exhaustiveness at compile time.
package capability

import (
	"fmt"

	"specwire/internal/outcome"
	"specwire/internal/spec"
)

// Capability names a feature or endpoint a model may support.
type Capability int

const (
	ChatCompletion Capability = iota
	StreamingChatCompletion
)

// capabilityNames maps the closed set to its wire identifiers.
var capabilityNames = map[Capability]string{
	ChatCompletion:          "chat_completion",
	StreamingChatCompletion: "streaming_chat_completion",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// Parse maps a wire identifier back to its Capability. The second return
// reports whether the name is known.
func Parse(name string) (Capability, bool) {
	for cap, capName := range capabilityNames {
		if capName == name {
			return cap, true
		}
	}
	return 0, false
}

// Known reports whether an endpoint map key names a recognised capability.
func Known(name string) bool {
	_, ok := Parse(name)
	return ok
}

// Names returns the wire identifiers of the closed set in declaration order.
func Names() []string {
	return []string{
		ChatCompletion.String(),
		StreamingChatCompletion.String(),
	}
}

// ModelCapabilities is the read-only fact sheet the translator works from.
type ModelCapabilities struct {
	ModelID    string
	Family     string
	BaseURL    string
	Headers    map[string]string
	Endpoints  map[Capability]spec.Endpoint
	InputModes spec.InputModes
}

// Supports reports whether the model declares an endpoint for the capability.
func (m *ModelCapabilities) Supports(c Capability) bool {
	_, ok := m.Endpoints[c]
	return ok
}

// Endpoint returns the descriptor for a declared capability.
func (m *ModelCapabilities) Endpoint(c Capability) (spec.Endpoint, bool) {
	ep, ok := m.Endpoints[c]
	return ep, ok
}

// Resolve looks up modelID among the provider's models by exact identifier
// match, falling back to declared aliases. A provider spec without models is
// ProviderNotFound; a missing model or a model with no recognised endpoints
// is ModelNotFound.
func Resolve(provider *spec.ProviderSpec, modelID string) (*ModelCapabilities, error) {
	if provider == nil || len(provider.Models) == 0 {
		return nil, outcome.New(outcome.ProviderNotFound, "provider spec declares no models")
	}

	model, ok := findModel(provider.Models, modelID)
	if !ok {
		return nil, outcome.Errorf(outcome.ModelNotFound, "model %q not found in provider %q", modelID, provider.Provider.Name)
	}

	endpoints := make(map[Capability]spec.Endpoint, len(model.Endpoints))
	for name, ep := range model.Endpoints {
		if cap, known := Parse(name); known {
			endpoints[cap] = ep
		}
	}
	if len(endpoints) == 0 {
		return nil, outcome.Errorf(outcome.ModelNotFound, "model %q declares no usable endpoints", model.ID)
	}

	return &ModelCapabilities{
		ModelID:    model.ID,
		Family:     model.Family,
		BaseURL:    provider.Provider.BaseURL,
		Headers:    provider.Provider.Headers,
		Endpoints:  endpoints,
		InputModes: model.InputModes,
	}, nil
}

func findModel(models []spec.ModelSpec, modelID string) (spec.ModelSpec, bool) {
	for _, model := range models {
		if model.ID == modelID {
			return model, true
		}
		for _, alias := range model.Aliases {
			if alias == modelID {
				return model, true
			}
		}
	}
	return spec.ModelSpec{}, false
}
