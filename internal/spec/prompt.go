package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message roles in the provider-agnostic prompt schema.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types.
const (
	PartText  = "text"
	PartImage = "image"
)

var (
	errEmptyMessages  = errors.New("at least one message is required")
	errInvalidRole    = errors.New("invalid role")
	errInvalidContent = errors.New("invalid message content")
	errInvalidStop    = errors.New("invalid stop sequences")
)

// PromptSpec is the provider-agnostic description of a chat request.
type PromptSpec struct {
	Messages    []Message
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Stop        []string
	Stream      bool
	Metadata    map[string]any
}

// UnmarshalJSON enforces validation and normalises fields.
func (p *PromptSpec) UnmarshalJSON(data []byte) error {
	type alias struct {
		Messages    []Message       `json:"messages"`
		Temperature *float64        `json:"temperature"`
		TopP        *float64        `json:"top_p"`
		MaxTokens   *int            `json:"max_tokens"`
		Stop        json.RawMessage `json:"stop"`
		Stream      bool            `json:"stream"`
		Metadata    map[string]any  `json:"metadata"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode prompt spec: %w", err)
	}

	stop, err := parseStop(raw.Stop)
	if err != nil {
		return err
	}

	p.Messages = raw.Messages
	p.Temperature = raw.Temperature
	p.TopP = raw.TopP
	p.MaxTokens = raw.MaxTokens
	p.Stop = stop
	p.Stream = raw.Stream
	p.Metadata = raw.Metadata

	return p.validate()
}

func (p *PromptSpec) validate() error {
	if len(p.Messages) == 0 {
		return errEmptyMessages
	}
	for i, msg := range p.Messages {
		if err := msg.validate(); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
	}
	return nil
}

// HasImages reports whether any message carries image content.
func (p *PromptSpec) HasImages() bool {
	for _, msg := range p.Messages {
		for _, part := range msg.Parts {
			if part.Type == PartImage {
				return true
			}
		}
	}
	return false
}

// Message is a single conversational turn.
type Message struct {
	Role  string
	Parts []Part
	Name  string
}

// Part is one content block within a message. Text parts carry Text; image
// parts carry Source (a URL or data reference).
type Part struct {
	Type   string
	Text   string
	Source string
}

// UnmarshalJSON accepts both a bare string content and a typed part list.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
		Name    string          `json:"name"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	parts, err := extractParts(raw.Content)
	if err != nil {
		return err
	}

	m.Role = strings.TrimSpace(raw.Role)
	m.Parts = parts
	m.Name = strings.TrimSpace(raw.Name)

	return m.validate()
}

func (m *Message) validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("%w: %q", errInvalidRole, m.Role)
	}
	if len(m.Parts) == 0 {
		return errInvalidContent
	}
	return nil
}

// Text flattens the message's text parts into a single string. Image parts
// are skipped; consecutive text parts are joined with newlines.
func (m Message) Text() string {
	var builder strings.Builder
	for _, part := range m.Parts {
		if part.Type != PartText {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(part.Text)
	}
	return builder.String()
}

func extractParts(raw json.RawMessage) ([]Part, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: missing content", errInvalidContent)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: content must not be empty", errInvalidContent)
		}
		return []Part{{Type: PartText, Text: text}}, nil
	}

	var blocks []struct {
		Type   string `json:"type"`
		Text   string `json:"text"`
		Source string `json:"source"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		parts := make([]Part, 0, len(blocks))
		for _, block := range blocks {
			switch block.Type {
			case PartText:
				if strings.TrimSpace(block.Text) == "" {
					return nil, fmt.Errorf("%w: text part must not be empty", errInvalidContent)
				}
				parts = append(parts, Part{Type: PartText, Text: block.Text})
			case PartImage:
				source := block.Source
				if source == "" {
					source = block.URL
				}
				if source == "" {
					return nil, fmt.Errorf("%w: image part requires source or url", errInvalidContent)
				}
				parts = append(parts, Part{Type: PartImage, Source: source})
			default:
				return nil, fmt.Errorf("%w: unsupported part type %q", errInvalidContent, block.Type)
			}
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("%w: content must not be empty", errInvalidContent)
		}
		return parts, nil
	}

	return nil, fmt.Errorf("%w: unsupported content structure", errInvalidContent)
}

func parseStop(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			return nil, errInvalidStop
		}
		return []string{single}, nil
	}

	var multi []string
	if err := json.Unmarshal(raw, &multi); err == nil {
		out := make([]string, 0, len(multi))
		for _, item := range multi {
			if strings.TrimSpace(item) == "" {
				return nil, errInvalidStop
			}
			out = append(out, item)
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	}

	return nil, errInvalidStop
}
