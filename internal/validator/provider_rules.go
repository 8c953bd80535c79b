package validator

import (
	"fmt"
	"net/url"
	"sort"

	"specwire/internal/capability"
)

func validateProvider(obj map[string]any, mode Mode, report *Report) {
	validateProviderInfo(obj, mode, report)

	models, ok := obj["models"].([]any)
	if !ok {
		report.addError("$.models", "models must be an array")
		return
	}

	if mode >= ModePartial && len(models) == 0 {
		report.addWarning("$.models", "provider declares no models")
	}

	seen := make(map[string]int, len(models))
	for i, raw := range models {
		path := fmt.Sprintf("$.models[%d]", i)
		model, ok := raw.(map[string]any)
		if !ok {
			report.addError(path, "model must be an object")
			continue
		}

		id, _ := model["id"].(string)
		if id == "" {
			report.addError(path+".id", "model id must be a non-empty string")
		} else if mode >= ModePartial {
			if first, dup := seen[id]; dup {
				report.addError(path+".id", fmt.Sprintf("model id %q duplicates models[%d]", id, first))
			} else {
				seen[id] = i
			}
		}

		validateModelEndpoints(model, path, mode, report)

		if mode >= ModeStrict {
			if family, _ := model["family"].(string); family == "" {
				report.addError(path+".family", "family is required")
			}
			if _, present := model["input_modes"]; !present {
				report.addError(path+".input_modes", "input_modes is required")
			}
		}
		if modes, present := model["input_modes"]; present {
			validateInputModes(modes, path+".input_modes", report)
		}
	}

	if mode >= ModeStrict {
		version, present := obj["spec_version"]
		if !present {
			report.addError("$.spec_version", "spec_version is required")
		} else if str, ok := version.(string); !ok {
			report.addError("$.spec_version", "spec_version must be a string")
		} else {
			checkVersion(report, "$.spec_version", str)
		}
	}
}

func validateProviderInfo(obj map[string]any, mode Mode, report *Report) {
	provider, ok := obj["provider"].(map[string]any)
	if !ok {
		report.addError("$.provider", "provider must be an object")
		return
	}

	if name, _ := provider["name"].(string); name == "" {
		report.addError("$.provider.name", "provider name must be a non-empty string")
	}

	baseURL, _ := provider["base_url"].(string)
	if baseURL == "" {
		report.addError("$.provider.base_url", "provider base_url must be a non-empty string")
	} else if mode >= ModePartial {
		parsed, err := url.Parse(baseURL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			report.addError("$.provider.base_url", fmt.Sprintf("base_url %q must be an absolute URL", baseURL))
		}
	}

	if headers, present := provider["headers"]; present {
		obj, ok := headers.(map[string]any)
		if !ok {
			report.addError("$.provider.headers", "headers must be an object of strings")
			return
		}
		keys := sortedKeys(obj)
		for _, key := range keys {
			if _, ok := obj[key].(string); !ok {
				report.addError("$.provider.headers."+key, "header value must be a string")
			}
		}
	}
}

func validateModelEndpoints(model map[string]any, path string, mode Mode, report *Report) {
	endpoints, present := model["endpoints"]
	if !present {
		if mode >= ModeStrict {
			report.addError(path+".endpoints", "endpoints is required")
		}
		return
	}

	obj, ok := endpoints.(map[string]any)
	if !ok {
		report.addError(path+".endpoints", "endpoints must be an object")
		return
	}
	if mode >= ModeStrict && len(obj) == 0 {
		report.addError(path+".endpoints", "endpoints must declare at least one capability")
	}

	for _, name := range sortedKeys(obj) {
		epPath := path + ".endpoints." + name
		if mode >= ModePartial && !capability.Known(name) {
			report.addWarning(epPath, fmt.Sprintf("unknown capability %q (known: %v)", name, capability.Names()))
		}

		ep, ok := obj[name].(map[string]any)
		if !ok {
			report.addError(epPath, "endpoint must be an object")
			continue
		}

		method, _ := ep["method"].(string)
		if method == "" {
			report.addError(epPath+".method", "endpoint method must be a non-empty string")
		}
		epURL, _ := ep["path"].(string)
		if epURL == "" {
			report.addError(epPath+".path", "endpoint path must be a non-empty string")
		}
		protocol, _ := ep["protocol"].(string)
		if protocol == "" {
			report.addError(epPath+".protocol", "endpoint protocol must be a non-empty string")
		} else if mode >= ModePartial {
			checkProtocol(name, protocol, epPath, report)
		}
	}
}

// checkProtocol flags protocol/capability pairings that the execution client
// will refuse: streaming endpoints are expected to speak sse, blocking chat
// endpoints http or https.
func checkProtocol(capabilityName, protocol, path string, report *Report) {
	switch capabilityName {
	case "streaming_chat_completion":
		if protocol != "sse" {
			report.addWarning(path+".protocol", fmt.Sprintf("streaming endpoint declares protocol %q, expected sse", protocol))
		}
	case "chat_completion":
		if protocol != "http" && protocol != "https" {
			report.addWarning(path+".protocol", fmt.Sprintf("chat endpoint declares protocol %q, expected http or https", protocol))
		}
	}
}

func validateInputModes(modes any, path string, report *Report) {
	obj, ok := modes.(map[string]any)
	if !ok {
		report.addError(path, "input_modes must be an object of booleans")
		return
	}
	for _, key := range sortedKeys(obj) {
		if _, ok := obj[key].(bool); !ok {
			report.addError(path+"."+key, "input mode flag must be a boolean")
		}
	}
}

// sortedKeys keeps finding order deterministic across runs.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
