package validator

import (
	"fmt"

	"specwire/internal/spec"
)

var promptRoles = map[string]struct{}{
	spec.RoleSystem:    {},
	spec.RoleUser:      {},
	spec.RoleAssistant: {},
}

func validatePrompt(obj map[string]any, mode Mode, report *Report) {
	messages, ok := obj["messages"].([]any)
	if !ok {
		report.addError("$.messages", "messages must be a non-empty array")
		return
	}
	if len(messages) == 0 {
		report.addError("$.messages", "messages must not be empty")
	}

	for i, raw := range messages {
		validatePromptMessage(raw, fmt.Sprintf("$.messages[%d]", i), report)
	}

	validatePromptParams(obj, report)

	if mode >= ModePartial {
		checkSystemPlacement(messages, report)
	}

	if mode >= ModeStrict {
		if version, present := obj["spec_version"]; present {
			str, ok := version.(string)
			if !ok {
				report.addError("$.spec_version", "spec_version must be a string")
			} else {
				checkVersion(report, "$.spec_version", str)
			}
		}
	}
}

func validatePromptMessage(raw any, path string, report *Report) {
	msg, ok := raw.(map[string]any)
	if !ok {
		report.addError(path, "message must be an object")
		return
	}

	role, _ := msg["role"].(string)
	if _, allowed := promptRoles[role]; !allowed {
		report.addError(path+".role", fmt.Sprintf("role %q must be one of system, user, assistant", role))
	}

	content, present := msg["content"]
	if !present {
		report.addError(path+".content", "content is required")
		return
	}

	switch c := content.(type) {
	case string:
		if c == "" {
			report.addError(path+".content", "content must not be empty")
		}
	case []any:
		if len(c) == 0 {
			report.addError(path+".content", "content part list must not be empty")
		}
		for i, rawPart := range c {
			validatePromptPart(rawPart, fmt.Sprintf("%s.content[%d]", path, i), report)
		}
	default:
		report.addError(path+".content", "content must be a string or an array of parts")
	}
}

func validatePromptPart(raw any, path string, report *Report) {
	part, ok := raw.(map[string]any)
	if !ok {
		report.addError(path, "content part must be an object")
		return
	}

	partType, _ := part["type"].(string)
	switch partType {
	case spec.PartText:
		if text, _ := part["text"].(string); text == "" {
			report.addError(path+".text", "text part must carry non-empty text")
		}
	case spec.PartImage:
		source, _ := part["source"].(string)
		url, _ := part["url"].(string)
		if source == "" && url == "" {
			report.addError(path, "image part requires source or url")
		}
	default:
		report.addError(path+".type", fmt.Sprintf("unsupported part type %q", partType))
	}
}

func validatePromptParams(obj map[string]any, report *Report) {
	if temp, present := obj["temperature"]; present {
		if _, ok := temp.(float64); !ok {
			report.addError("$.temperature", "temperature must be a number")
		}
	}
	if topP, present := obj["top_p"]; present {
		if _, ok := topP.(float64); !ok {
			report.addError("$.top_p", "top_p must be a number")
		}
	}
	if maxTokens, present := obj["max_tokens"]; present {
		n, ok := maxTokens.(float64)
		if !ok || n != float64(int(n)) || n < 1 {
			report.addError("$.max_tokens", "max_tokens must be a positive integer")
		}
	}
	if stream, present := obj["stream"]; present {
		if _, ok := stream.(bool); !ok {
			report.addError("$.stream", "stream must be a boolean")
		}
	}
	if stop, present := obj["stop"]; present {
		switch s := stop.(type) {
		case string:
			if s == "" {
				report.addError("$.stop", "stop must not be empty")
			}
		case []any:
			for i, item := range s {
				if str, ok := item.(string); !ok || str == "" {
					report.addError(fmt.Sprintf("$.stop[%d]", i), "stop sequences must be non-empty strings")
				}
			}
		default:
			report.addError("$.stop", "stop must be a string or an array of strings")
		}
	}
}

// checkSystemPlacement enforces the leading-system convention: at most one
// system message, and only at the head of the sequence. Violations are
// warnings because parse time does not enforce the convention.
func checkSystemPlacement(messages []any, report *Report) {
	systemCount := 0
	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := msg["role"].(string); role == spec.RoleSystem {
			systemCount++
			if i != 0 {
				report.addWarning(fmt.Sprintf("$.messages[%d]", i), "system message should lead the sequence")
			}
		}
	}
	if systemCount > 1 {
		report.addWarning("$.messages", fmt.Sprintf("expected at most one system message, found %d", systemCount))
	}
}
