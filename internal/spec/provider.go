package spec

// ProviderSpec describes a vendor's API surface: its models, their endpoints,
// and the input modes each model supports. The document is declarative data;
// semantic checks beyond JSON shape belong to the validator.
type ProviderSpec struct {
	SpecVersion string      `json:"spec_version"`
	Provider    Provider    `json:"provider"`
	Models      []ModelSpec `json:"models"`
}

// Provider carries vendor-level connection facts.
type Provider struct {
	Name    string            `json:"name"`
	BaseURL string            `json:"base_url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ModelSpec declares one model's identity and capability surface.
type ModelSpec struct {
	ID         string              `json:"id"`
	Aliases    []string            `json:"aliases,omitempty"`
	Family     string              `json:"family"`
	Endpoints  map[string]Endpoint `json:"endpoints"`
	InputModes InputModes          `json:"input_modes"`
}

// Endpoint describes how one capability is reached.
type Endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Protocol string `json:"protocol"`
}

// InputModes flags the content shapes a model accepts.
type InputModes struct {
	Messages   bool `json:"messages"`
	SingleText bool `json:"single_text"`
	Images     bool `json:"images"`
}
