// Package event frames the agent's SSE byte stream into lines and decodes
// the data-bearing ones into typed events.
package event

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the decoded events.
type Kind int

const (
	// KindOther is a well-formed data frame whose type this gateway does
	// not react to (prose deltas, usage, etc). It is still relayed.
	KindOther Kind = iota
	KindCallStart
	KindCallDelta
	KindCallComplete
	KindFinished
)

func (k Kind) String() string {
	switch k {
	case KindCallStart:
		return "call-start"
	case KindCallDelta:
		return "call-delta"
	case KindCallComplete:
		return "call-complete"
	case KindFinished:
		return "finished"
	default:
		return "other"
	}
}

// Event is one decoded data frame.
type Event struct {
	Kind     Kind
	CallID   string
	ToolName string
	Fragment string
}

// marker prefixes every data-bearing line of the wire format.
const marker = "data: "

// frame is the wire shape of a data frame payload.
type frame struct {
	Type           string `json:"type"`
	ToolCallID     string `json:"toolCallId,omitempty"`
	ToolName       string `json:"toolName,omitempty"`
	InputTextDelta string `json:"inputTextDelta,omitempty"`
}

// Decode classifies one line of the stream. Lines without the data marker,
// empty payloads and malformed JSON all decode to nil; they are not errors,
// the caller keeps relaying them untouched.
func Decode(line []byte) *Event {
	trimmed := strings.TrimSpace(string(line))
	if !strings.HasPrefix(trimmed, marker) {
		return nil
	}

	payload := strings.TrimPrefix(trimmed, marker)
	if payload == "" {
		return nil
	}

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil
	}

	switch f.Type {
	case "tool-input-start":
		return &Event{Kind: KindCallStart, CallID: f.ToolCallID, ToolName: f.ToolName}
	case "tool-input-delta":
		return &Event{Kind: KindCallDelta, CallID: f.ToolCallID, Fragment: f.InputTextDelta}
	case "tool-output-available":
		return &Event{Kind: KindCallComplete, CallID: f.ToolCallID}
	case "finish":
		return &Event{Kind: KindFinished}
	}

	return &Event{Kind: KindOther}
}
