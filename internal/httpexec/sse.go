package httpexec

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"specwire/internal/outcome"
)

const (
	acceptEventStream = "text/event-stream"
	streamTerminator  = "[DONE]"

	// Individual stream lines beyond this size indicate a misbehaving
	// provider rather than a legitimate event.
	maxEventLineBytes = 1 << 20
)

// event is one server-sent event collected from the stream. Data lines are
// joined with newlines per the SSE framing rules.
type event struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type eventStream struct {
	Events []event `json:"events"`
}

// executeSSE consumes the stream to completion and packages the collected
// events as a single JSON document. The stream ends at EOF or at the
// conventional [DONE] sentinel, whichever comes first.
func (c *Client) executeSSE(ctx context.Context, req *Request) (json.RawMessage, error) {
	httpResp, err := c.do(ctx, req, acceptEventStream)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return nil, classifyStatus(httpResp)
	}

	events, err := readEvents(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	payload, err := json.Marshal(eventStream{Events: events})
	if err != nil {
		return nil, outcome.Errorf(outcome.InternalError, "encode event stream: %v", err)
	}
	return json.RawMessage(payload), nil
}

func readEvents(r io.Reader) ([]event, error) {
	scanner := bufio.NewScanner(io.LimitReader(r, maxResponseBytes))
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineBytes)

	events := []event{}
	var name string
	var dataLines []string

	flush := func() {
		if name == "" && len(dataLines) == 0 {
			return
		}
		events = append(events, event{
			Event: name,
			Data:  encodeEventData(strings.Join(dataLines, "\n")),
		})
		name = ""
		dataLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// Comment line, keep-alive padding.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == streamTerminator {
				flush()
				return events, nil
			}
			dataLines = append(dataLines, data)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()
	return events, nil
}

// encodeEventData keeps JSON payloads structured and wraps anything else as
// a JSON string so the collected document is always valid JSON.
func encodeEventData(data string) json.RawMessage {
	if json.Valid([]byte(data)) && data != "" {
		return json.RawMessage(data)
	}
	wrapped, err := json.Marshal(data)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(wrapped)
}
